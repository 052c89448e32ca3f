package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"photo-stream/internal/cursor"
	"photo-stream/internal/logging"
	"photo-stream/internal/metrics"
	"photo-stream/internal/query"
)

// Locate resolves a deep link: one targeted query that finds the page
// containing the requested photo under the active filters, plus the
// photo's index inside that page. A target that does not exist, or
// exists but is excluded by the filters, returns ErrNotFound; callers
// must not fall back to scanning the collection page by page.
func (d *Database) Locate(ctx context.Context, req LocateRequest) (*LocateResult, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("locate", start, err) }()

	if req.Filename == "" {
		err = fmt.Errorf("%w: empty filename", ErrNotFound)
		return nil, err
	}

	f := req.Filters.Normalize()
	limit := clampLimit(req.Limit)

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	target, findErr := d.findTargetLocked(ctx, f, req)
	if findErr != nil {
		err = findErr
		metrics.LocateTotal.WithLabelValues("miss").Inc()
		return nil, err
	}

	// The target's absolute rank is the number of rows strictly before
	// it in the canonical order, which is exactly the backward boundary
	// predicate counted.
	rank, rankErr := d.rankLocked(ctx, f, target)
	if rankErr != nil {
		err = rankErr
		return nil, err
	}

	// Page-align so the target lands at rank % limit within its page.
	pageStart := rank - rank%limit

	items, fetchErr := d.pageAtLocked(ctx, f, pageStart, limit)
	if fetchErr != nil {
		err = fetchErr
		return nil, err
	}

	result := &LocateResult{
		PhotoPage:  PhotoPage{Items: items},
		IdxInItems: rank % limit,
		Target:     target,
	}

	// Trust the fetched rows over the computed rank when they disagree
	// (a concurrent insert can shift ranks between the two queries).
	for i, item := range items {
		if item.ID == target.ID {
			result.IdxInItems = i
			break
		}
	}

	if len(items) > 0 {
		first := items[0]
		last := items[len(items)-1]

		hasBefore, probeErr := d.hasBeyondLocked(ctx, f, first, query.DirPrev)
		if probeErr != nil {
			err = probeErr
			return nil, err
		}
		if hasBefore {
			tok := cursor.Encode(first.SortValue(f.SortField), first.ID)
			result.PrevCursor = &tok
		}

		hasAfter, probeErr := d.hasBeyondLocked(ctx, f, last, query.DirNext)
		if probeErr != nil {
			err = probeErr
			return nil, err
		}
		if hasAfter {
			tok := cursor.Encode(last.SortValue(f.SortField), last.ID)
			result.NextCursor = &tok
		}
	}

	if err = d.fillTotalsLocked(ctx, f, &result.PhotoPage); err != nil {
		return nil, err
	}

	metrics.LocateTotal.WithLabelValues("hit").Inc()
	logging.Debug("Locate: %q rank=%d idx=%d in %v", req.Filename, rank, result.IdxInItems, time.Since(start))

	return result, nil
}

// findTargetLocked resolves the identity under the full active filter
// predicate, so a photo that exists but is filtered out reports not
// found rather than producing a page it cannot appear on.
func (d *Database) findTargetLocked(ctx context.Context, f query.Filters, req LocateRequest) (Photo, error) {
	pred, err := query.Build(f, nil, query.DirNext)
	if err != nil {
		return Photo{}, err
	}

	where := pred.Where + " AND p.filename = ?"
	args := append(append([]interface{}{}, pred.Args...), req.Filename)

	if req.ProjectID > 0 {
		where += " AND p.project_id = ?"
		args = append(args, req.ProjectID)
	}

	// Basenames can collide across projects in the union view; the
	// first match in canonical order wins.
	sqlQuery := fmt.Sprintf(`
		SELECT p.id, p.project_id, j.name, p.filename, p.captured_at, p.file_type, p.size, p.rating, p.flagged
		FROM photos p
		INNER JOIN projects j ON p.project_id = j.id
		WHERE %s
		ORDER BY %s
		LIMIT 1`, where, pred.Order)

	row := d.db.QueryRowContext(ctx, sqlQuery, args...)
	photo, err := scanPhoto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Photo{}, fmt.Errorf("%w: photo %q under active filters", ErrNotFound, req.Filename)
		}
		return Photo{}, err
	}

	photo.Tags = d.photoTagsLocked(ctx, photo.ID)
	return photo, nil
}

func (d *Database) rankLocked(ctx context.Context, f query.Filters, target Photo) (int, error) {
	cur := cursor.Cursor{SortValue: target.SortValue(f.SortField), ID: target.ID}

	pred, err := query.Build(f, &cur, query.DirPrev)
	if err != nil {
		return 0, err
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM photos p
		INNER JOIN projects j ON p.project_id = j.id
		WHERE %s`, pred.Where)

	var rank int
	if err := d.db.QueryRowContext(ctx, countQuery, pred.Args...).Scan(&rank); err != nil {
		return 0, fmt.Errorf("rank query failed: %w", err)
	}
	return rank, nil
}

// pageAtLocked fetches the page starting at an absolute rank. This is
// the one place an OFFSET appears: locate is a single targeted query,
// not a navigation step, so the usual keyset-only rule does not apply.
func (d *Database) pageAtLocked(ctx context.Context, f query.Filters, offset, limit int) ([]Photo, error) {
	pred, err := query.Build(f, nil, query.DirNext)
	if err != nil {
		return nil, err
	}

	sqlQuery := fmt.Sprintf(`
		SELECT p.id, p.project_id, j.name, p.filename, p.captured_at, p.file_type, p.size, p.rating, p.flagged
		FROM photos p
		INNER JOIN projects j ON p.project_id = j.id
		WHERE %s
		ORDER BY %s
		LIMIT ? OFFSET ?`, pred.Where, pred.Order)

	args := append(append([]interface{}{}, pred.Args...), limit, offset)

	rows, err := d.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("locate page query failed: %w", err)
	}
	defer rows.Close()

	var items []Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		photo.Tags = d.photoTagsLocked(ctx, photo.ID)
		items = append(items, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

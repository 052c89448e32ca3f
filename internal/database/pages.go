package database

import (
	"context"
	"fmt"
	"time"

	"photo-stream/internal/cursor"
	"photo-stream/internal/logging"
	"photo-stream/internal/metrics"
	"photo-stream/internal/query"
)

const (
	// DefaultPageSize is used when a fetch does not specify a limit.
	DefaultPageSize = 100
	// MaxPageSize is the clamp ceiling; larger requests are clamped,
	// not rejected.
	MaxPageSize = 300
)

func clampLimit(limit int) int {
	if limit < 1 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// FetchPage returns one keyset-bounded page of photos in canonical
// forward order. opts.Cursor fetches the page after that position,
// opts.BeforeCursor the page before it; both absent means the first
// page. Setting both is an error. A malformed cursor is reported
// wrapped in cursor.ErrMalformed so callers can treat it as absent.
func (d *Database) FetchPage(ctx context.Context, opts PageOptions) (*PhotoPage, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("fetch_page", start, err) }()

	if opts.Cursor != "" && opts.BeforeCursor != "" {
		err = fmt.Errorf("at most one of cursor and before_cursor may be set")
		return nil, err
	}

	f := opts.Filters.Normalize()
	limit := clampLimit(opts.Limit)

	dir := query.DirNext
	token := opts.Cursor
	if opts.BeforeCursor != "" {
		dir = query.DirPrev
		token = opts.BeforeCursor
	}

	var cur *cursor.Cursor
	if token != "" {
		c, decErr := cursor.Decode(token)
		if decErr != nil {
			err = decErr
			return nil, err
		}
		cur = &c
	}

	pred, buildErr := query.Build(f, cur, dir)
	if buildErr != nil {
		err = buildErr
		return nil, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	items, scanErr := d.queryPhotosLocked(ctx, pred, limit)
	if scanErr != nil {
		err = scanErr
		return nil, err
	}

	page := &PhotoPage{Items: items}

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
			page.PrevCursor = &tok
		}

		hasAfter, probeErr := d.hasBeyondLocked(ctx, f, last, query.DirNext)
		if probeErr != nil {
			err = probeErr
			return nil, err
		}
		if hasAfter {
			tok := cursor.Encode(last.SortValue(f.SortField), last.ID)
			page.NextCursor = &tok
		}
	}

	if err = d.fillTotalsLocked(ctx, f, page); err != nil {
		return nil, err
	}

	metrics.PagesServed.WithLabelValues(string(dir)).Inc()
	logging.Debug("FetchPage: dir=%s limit=%d items=%d total=%d in %v",
		dir, limit, len(page.Items), page.Total, time.Since(start))

	return page, nil
}

// queryPhotosLocked runs the page query and returns rows in canonical
// forward order, re-reversing backward fetches. Caller holds d.mu.
func (d *Database) queryPhotosLocked(ctx context.Context, pred query.Predicate, limit int) ([]Photo, error) {
	sqlQuery := fmt.Sprintf(`
		SELECT p.id, p.project_id, j.name, p.filename, p.captured_at, p.file_type, p.size, p.rating, p.flagged
		FROM photos p
		INNER JOIN projects j ON p.project_id = j.id
		WHERE %s
		ORDER BY %s
		LIMIT ?`, pred.Where, pred.Order)

	args := append(append([]interface{}{}, pred.Args...), limit)

	rows, err := d.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("page query failed: %w", err)
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

	// Backward fetches run with the order inverted; restore the
	// canonical forward order before anything downstream sees them.
	if pred.Reversed {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
	}

	return items, nil
}

// hasBeyondLocked reports whether any row matching the filters exists
// strictly beyond edge in the given direction. Eviction and cursor
// bookkeeping rely on this probe instead of guessing from page sizes.
func (d *Database) hasBeyondLocked(ctx context.Context, f query.Filters, edge Photo, dir query.Direction) (bool, error) {
	cur := cursor.Cursor{SortValue: edge.SortValue(f.SortField), ID: edge.ID}

	pred, err := query.Build(f, &cur, dir)
	if err != nil {
		return false, err
	}

	probe := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM photos p
			INNER JOIN projects j ON p.project_id = j.id
			WHERE %s
		)`, pred.Where)

	var exists bool
	if err := d.db.QueryRowContext(ctx, probe, pred.Args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("edge probe failed: %w", err)
	}
	return exists, nil
}

// fillTotalsLocked computes the advisory filtered and scope-only
// counts. Callers must never use these for loop termination.
func (d *Database) fillTotalsLocked(ctx context.Context, f query.Filters, page *PhotoPage) error {
	filtered, err := d.countLocked(ctx, f)
	if err != nil {
		return err
	}
	page.Total = filtered

	scopeOnly := query.Filters{ProjectID: f.ProjectID}
	unfiltered, err := d.countLocked(ctx, scopeOnly)
	if err != nil {
		return err
	}
	page.UnfilteredTotal = unfiltered

	return nil
}

func (d *Database) countLocked(ctx context.Context, f query.Filters) (int, error) {
	pred, err := query.Build(f, nil, query.DirNext)
	if err != nil {
		return 0, err
	}

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM photos p
		INNER JOIN projects j ON p.project_id = j.id
		WHERE %s`, pred.Where)

	var n int
	if err := d.db.QueryRowContext(ctx, countQuery, pred.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPhoto(row rowScanner) (Photo, error) {
	var p Photo
	var capturedAt string
	var flagged int

	if err := row.Scan(
		&p.ID, &p.ProjectID, &p.ProjectName, &p.Filename,
		&capturedAt, &p.FileType, &p.Size, &p.Rating, &flagged,
	); err != nil {
		return Photo{}, fmt.Errorf("scan failed: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, capturedAt)
	if err != nil {
		return Photo{}, fmt.Errorf("bad captured_at %q: %w", capturedAt, err)
	}
	p.CapturedAt = ts
	p.Flagged = flagged != 0

	return p, nil
}

// photoTagsLocked returns the tag names for a photo. Tag lookup
// failures degrade to an untagged photo rather than failing the page.
func (d *Database) photoTagsLocked(ctx context.Context, photoID int64) []string {
	rows, err := d.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		INNER JOIN photo_tags pt ON pt.tag_id = t.id
		WHERE pt.photo_id = ?
		ORDER BY t.name COLLATE NOCASE`, photoID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tags = append(tags, name)
	}
	return tags
}

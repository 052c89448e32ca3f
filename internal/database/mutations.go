package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertProject creates a project by name or returns the existing one.
func (d *Database) UpsertProject(ctx context.Context, name string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_project", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO projects (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return 0, fmt.Errorf("upsert project failed: %w", err)
	}

	var id int64
	err = d.db.QueryRowContext(ctx, `SELECT id FROM projects WHERE name = ?`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("project lookup failed: %w", err)
	}
	return id, nil
}

// SetProjectArchived soft-deletes or restores a project. Archived
// projects keep their photos but drop out of union listings.
func (d *Database) SetProjectArchived(ctx context.Context, projectID int64, archived bool) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("archive_project", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	flag := 0
	if archived {
		flag = 1
	}

	result, execErr := d.db.ExecContext(ctx, `UPDATE projects SET archived = ? WHERE id = ?`, flag, projectID)
	if execErr != nil {
		err = fmt.Errorf("archive project failed: %w", execErr)
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = fmt.Errorf("%w: project %d", ErrNotFound, projectID)
		return err
	}
	return nil
}

// ListProjects returns all projects with photo counts, archived ones
// included so scope pickers can offer to restore them.
func (d *Database) ListProjects(ctx context.Context) ([]Project, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_projects", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, queryErr := d.db.QueryContext(ctx, `
		SELECT j.id, j.name, j.archived, j.created_at, COUNT(p.id)
		FROM projects j
		LEFT JOIN photos p ON p.project_id = j.id
		GROUP BY j.id
		ORDER BY j.name COLLATE NOCASE`)
	if queryErr != nil {
		err = fmt.Errorf("list projects failed: %w", queryErr)
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		var archived int
		var createdAt int64
		if err = rows.Scan(&p.ID, &p.Name, &archived, &createdAt, &p.PhotoCount); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		p.Archived = archived != 0
		p.CreatedAt = time.Unix(createdAt, 0)
		projects = append(projects, p)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return projects, nil
}

// InsertPhoto adds a photo record and returns its id. The
// (project, filename) pair is unique; re-inserting updates the
// capture metadata in place.
func (d *Database) InsertPhoto(ctx context.Context, p *Photo) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("insert_photo", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO photos (project_id, filename, captured_at, file_type, size, rating, flagged)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, filename) DO UPDATE SET
			captured_at = excluded.captured_at,
			file_type = excluded.file_type,
			size = excluded.size,
			updated_at = strftime('%s', 'now')`,
		p.ProjectID,
		p.Filename,
		p.CapturedAt.UTC().Format(time.RFC3339),
		p.FileType,
		p.Size,
		p.Rating,
		boolToInt(p.Flagged),
	)
	if err != nil {
		return 0, fmt.Errorf("insert photo failed: %w", err)
	}

	var id int64
	err = d.db.QueryRowContext(ctx,
		`SELECT id FROM photos WHERE project_id = ? AND filename = ?`,
		p.ProjectID, p.Filename).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("photo lookup failed: %w", err)
	}
	p.ID = id
	return id, nil
}

// DeletePhoto removes a photo record.
func (d *Database) DeletePhoto(ctx context.Context, photoID int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_photo", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := d.db.ExecContext(ctx, `DELETE FROM photos WHERE id = ?`, photoID)
	if execErr != nil {
		err = fmt.Errorf("delete photo failed: %w", execErr)
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = fmt.Errorf("%w: photo %d", ErrNotFound, photoID)
		return err
	}
	return nil
}

// SetPhotoRating updates a photo's rating (0..5).
func (d *Database) SetPhotoRating(ctx context.Context, photoID int64, rating int) error {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return d.updatePhotoField(ctx, "set_rating", `UPDATE photos SET rating = ?, updated_at = strftime('%s', 'now') WHERE id = ?`, rating, photoID)
}

// SetPhotoFlagged updates a photo's flagged state.
func (d *Database) SetPhotoFlagged(ctx context.Context, photoID int64, flagged bool) error {
	return d.updatePhotoField(ctx, "set_flagged", `UPDATE photos SET flagged = ?, updated_at = strftime('%s', 'now') WHERE id = ?`, boolToInt(flagged), photoID)
}

func (d *Database) updatePhotoField(ctx context.Context, op, sqlQuery string, value interface{}, photoID int64) error {
	start := time.Now()
	var err error
	defer func() { recordQuery(op, start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, execErr := d.db.ExecContext(ctx, sqlQuery, value, photoID)
	if execErr != nil {
		err = fmt.Errorf("photo update failed: %w", execErr)
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		err = fmt.Errorf("%w: photo %d", ErrNotFound, photoID)
		return err
	}
	return nil
}

// TagPhoto attaches a tag to a photo, creating the tag if needed.
func (d *Database) TagPhoto(ctx context.Context, photoID int64, tag string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("tag_photo", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, tag)
	if err != nil {
		return fmt.Errorf("tag upsert failed: %w", err)
	}

	var tagID int64
	err = d.db.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, tag).Scan(&tagID)
	if err != nil {
		return fmt.Errorf("tag lookup failed: %w", err)
	}

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO photo_tags (photo_id, tag_id) VALUES (?, ?)
		ON CONFLICT(photo_id, tag_id) DO NOTHING`, photoID, tagID)
	if err != nil {
		return fmt.Errorf("tag attach failed: %w", err)
	}
	return nil
}

// UntagPhoto detaches a tag from a photo. Detaching an absent tag is
// not an error.
func (d *Database) UntagPhoto(ctx context.Context, photoID int64, tag string) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("untag_photo", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		DELETE FROM photo_tags
		WHERE photo_id = ? AND tag_id IN (SELECT id FROM tags WHERE name = ?)`,
		photoID, tag)
	if err != nil {
		return fmt.Errorf("tag detach failed: %w", err)
	}
	return nil
}

// GetPhoto retrieves a single photo by project and filename.
func (d *Database) GetPhoto(ctx context.Context, projectID int64, filename string) (*Photo, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_photo", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, `
		SELECT p.id, p.project_id, j.name, p.filename, p.captured_at, p.file_type, p.size, p.rating, p.flagged
		FROM photos p
		INNER JOIN projects j ON p.project_id = j.id
		WHERE p.project_id = ? AND p.filename = ?`,
		projectID, filename)

	photo, scanErr := scanPhoto(row)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			err = fmt.Errorf("%w: photo %q in project %d", ErrNotFound, filename, projectID)
			return nil, err
		}
		err = scanErr
		return nil, err
	}

	photo.Tags = d.photoTagsLocked(ctx, photo.ID)
	return &photo, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

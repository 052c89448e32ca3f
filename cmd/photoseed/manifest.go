package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"photo-stream/internal/database"
	"photo-stream/internal/workers"
)

// manifestEntry is one line of a JSON Lines import manifest.
type manifestEntry struct {
	Project    string   `json:"project"`
	Filename   string   `json:"filename"`
	CapturedAt string   `json:"captured_at"`
	FileType   string   `json:"file_type"`
	Size       int64    `json:"size"`
	Rating     int      `json:"rating"`
	Flagged    bool     `json:"flagged"`
	Tags       []string `json:"tags"`

	capturedAt time.Time
}

var validFileTypes = map[string]bool{
	"raw":  true,
	"jpeg": true,
	"both": true,
}

// readManifest parses a JSON Lines manifest. Blank lines and lines
// starting with # are skipped. Any invalid line aborts the whole read
// so a partial import never happens silently.
func readManifest(r io.Reader) ([]manifestEntry, error) {
	var entries []manifestEntry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var entry manifestEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", lineNo, err)
		}
		if err := entry.validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	return entries, nil
}

func (e *manifestEntry) validate() error {
	if e.Project == "" {
		return fmt.Errorf("missing project")
	}
	if e.Filename == "" {
		return fmt.Errorf("missing filename")
	}
	if e.FileType == "" {
		e.FileType = "jpeg"
	}
	if !validFileTypes[e.FileType] {
		return fmt.Errorf("invalid file_type %q (want raw, jpeg, or both)", e.FileType)
	}
	if e.Rating < 0 || e.Rating > 5 {
		return fmt.Errorf("rating %d out of range [0, 5]", e.Rating)
	}

	// Accept full RFC3339 timestamps or bare dates.
	t, err := time.Parse(time.RFC3339, e.CapturedAt)
	if err != nil {
		t, err = time.Parse("2006-01-02", e.CapturedAt)
	}
	if err != nil {
		return fmt.Errorf("invalid captured_at %q: %w", e.CapturedAt, err)
	}
	e.capturedAt = t.UTC()

	return nil
}

// importSummary reports the outcome of one import run.
type importSummary struct {
	Inserted int
	Projects int
	Failed   int
	Errors   []error
}

// importEntries creates the referenced projects, then inserts photos
// concurrently. Projects are created up front so the workers only ever
// touch photo and tag rows.
func importEntries(ctx context.Context, db *database.Database, entries []manifestEntry) importSummary {
	var summary importSummary

	projectIDs := make(map[string]int64)
	names := make([]string, 0)
	for _, e := range entries {
		if _, ok := projectIDs[e.Project]; !ok {
			projectIDs[e.Project] = 0
			names = append(names, e.Project)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		id, err := db.UpsertProject(ctx, name)
		if err != nil {
			summary.Failed = len(entries)
			summary.Errors = append(summary.Errors, fmt.Errorf("project %q: %w", name, err))
			return summary
		}
		projectIDs[name] = id
	}
	summary.Projects = len(names)

	numWorkers := workers.ForIO(maxImportWorkers)
	if numWorkers > len(entries) {
		numWorkers = len(entries)
	}

	jobs := make(chan manifestEntry)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range jobs {
				err := insertEntry(ctx, db, projectIDs[e.Project], e)
				mu.Lock()
				if err != nil {
					summary.Failed++
					summary.Errors = append(summary.Errors, fmt.Errorf("%s/%s: %w", e.Project, e.Filename, err))
				} else {
					summary.Inserted++
				}
				mu.Unlock()
			}
		}()
	}

	for _, e := range entries {
		select {
		case jobs <- e:
		case <-ctx.Done():
			mu.Lock()
			summary.Errors = append(summary.Errors, ctx.Err())
			mu.Unlock()
			close(jobs)
			wg.Wait()
			return summary
		}
	}
	close(jobs)
	wg.Wait()

	return summary
}

func insertEntry(ctx context.Context, db *database.Database, projectID int64, e manifestEntry) error {
	photoID, err := db.InsertPhoto(ctx, &database.Photo{
		ProjectID:  projectID,
		Filename:   e.Filename,
		CapturedAt: e.capturedAt,
		FileType:   e.FileType,
		Size:       e.Size,
		Rating:     e.Rating,
		Flagged:    e.Flagged,
	})
	if err != nil {
		return err
	}

	for _, tag := range e.Tags {
		if err := db.TagPhoto(ctx, photoID, tag); err != nil {
			return fmt.Errorf("tag %q: %w", tag, err)
		}
	}
	return nil
}

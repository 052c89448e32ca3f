package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photo-stream/internal/database"
)

func TestReadManifest(t *testing.T) {
	input := `
# fixture manifest
{"project":"alps","filename":"IMG_0001.CR3","captured_at":"2024-03-01T10:00:00Z","file_type":"raw","size":100,"rating":3,"flagged":true,"tags":["keeper"]}

{"project":"alps","filename":"IMG_0002.jpg","captured_at":"2024-03-02","size":50}
`

	entries, err := readManifest(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readManifest() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("readManifest() returned %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first.Filename != "IMG_0001.CR3" || first.Rating != 3 || !first.Flagged {
		t.Errorf("first entry parsed wrong: %+v", first)
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !first.capturedAt.Equal(want) {
		t.Errorf("capturedAt = %v, want %v", first.capturedAt, want)
	}

	// Bare dates parse to midnight UTC and file_type defaults to jpeg.
	second := entries[1]
	if second.capturedAt != time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) {
		t.Errorf("bare date parsed to %v", second.capturedAt)
	}
	if second.FileType != "jpeg" {
		t.Errorf("default file_type = %q, want jpeg", second.FileType)
	}
}

func TestReadManifestErrors(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantErr string
	}{
		{
			name:    "invalid JSON",
			line:    `{"project":`,
			wantErr: "invalid JSON",
		},
		{
			name:    "missing project",
			line:    `{"filename":"a.jpg","captured_at":"2024-03-01"}`,
			wantErr: "missing project",
		},
		{
			name:    "missing filename",
			line:    `{"project":"alps","captured_at":"2024-03-01"}`,
			wantErr: "missing filename",
		},
		{
			name:    "bad file type",
			line:    `{"project":"alps","filename":"a.jpg","captured_at":"2024-03-01","file_type":"tiff"}`,
			wantErr: "invalid file_type",
		},
		{
			name:    "rating out of range",
			line:    `{"project":"alps","filename":"a.jpg","captured_at":"2024-03-01","rating":6}`,
			wantErr: "out of range",
		},
		{
			name:    "bad timestamp",
			line:    `{"project":"alps","filename":"a.jpg","captured_at":"yesterday"}`,
			wantErr: "invalid captured_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readManifest(strings.NewReader(tt.line + "\n"))
			if err == nil {
				t.Fatalf("readManifest(%q) succeeded, want error", tt.line)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), "line 1") {
				t.Errorf("error = %q, want line number", err)
			}
		})
	}
}

func newImportTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "photos.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})
	return db
}

func TestImportEntries(t *testing.T) {
	db := newImportTestDB(t)
	ctx := context.Background()

	manifest := `
{"project":"alps","filename":"IMG_0001.CR3","captured_at":"2024-03-01T10:00:00Z","file_type":"raw","size":100,"rating":3,"tags":["keeper","b&w"]}
{"project":"alps","filename":"IMG_0002.CR3","captured_at":"2024-03-01T11:00:00Z","file_type":"raw","size":200,"flagged":true}
{"project":"wedding","filename":"DSC_0001.jpg","captured_at":"2024-04-01T09:00:00Z","size":50}
`
	entries, err := readManifest(strings.NewReader(manifest))
	if err != nil {
		t.Fatalf("readManifest() error = %v", err)
	}

	summary := importEntries(ctx, db, entries)
	if summary.Failed != 0 {
		t.Fatalf("import failed entries: %v", summary.Errors)
	}
	if summary.Inserted != 3 {
		t.Errorf("Inserted = %d, want 3", summary.Inserted)
	}
	if summary.Projects != 2 {
		t.Errorf("Projects = %d, want 2", summary.Projects)
	}

	stats, err := db.CalculateStats(ctx)
	if err != nil {
		t.Fatalf("CalculateStats() error = %v", err)
	}
	if stats.TotalPhotos != 3 {
		t.Errorf("TotalPhotos = %d, want 3", stats.TotalPhotos)
	}
	if stats.TotalProjects != 2 {
		t.Errorf("TotalProjects = %d, want 2", stats.TotalProjects)
	}
	if stats.FlaggedPhotos != 1 {
		t.Errorf("FlaggedPhotos = %d, want 1", stats.FlaggedPhotos)
	}
	if stats.TotalTags != 2 {
		t.Errorf("TotalTags = %d, want 2", stats.TotalTags)
	}
}

func TestImportEntriesIdempotent(t *testing.T) {
	db := newImportTestDB(t)
	ctx := context.Background()

	manifest := `{"project":"alps","filename":"IMG_0001.CR3","captured_at":"2024-03-01T10:00:00Z","file_type":"raw","size":100}`
	entries, err := readManifest(strings.NewReader(manifest))
	if err != nil {
		t.Fatalf("readManifest() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		summary := importEntries(ctx, db, entries)
		if summary.Failed != 0 {
			t.Fatalf("run %d failed: %v", i, summary.Errors)
		}
	}

	stats, err := db.CalculateStats(ctx)
	if err != nil {
		t.Fatalf("CalculateStats() error = %v", err)
	}
	if stats.TotalPhotos != 1 {
		t.Errorf("TotalPhotos after reimport = %d, want 1", stats.TotalPhotos)
	}
	if stats.TotalProjects != 1 {
		t.Errorf("TotalProjects after reimport = %d, want 1", stats.TotalProjects)
	}
}

func TestImportEntriesManyWorkers(t *testing.T) {
	db := newImportTestDB(t)
	ctx := context.Background()

	var b strings.Builder
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "{\"project\":\"bulk\",\"filename\":\"IMG_%04d.jpg\",\"captured_at\":%q,\"size\":10}\n",
			i+1, base.Add(time.Duration(i)*time.Minute).Format(time.RFC3339))
	}

	entries, err := readManifest(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("readManifest() error = %v", err)
	}

	summary := importEntries(ctx, db, entries)
	if summary.Failed != 0 {
		t.Fatalf("import failed entries: %v", summary.Errors)
	}
	if summary.Inserted != 40 {
		t.Errorf("Inserted = %d, want 40", summary.Inserted)
	}

	stats, err := db.CalculateStats(ctx)
	if err != nil {
		t.Fatalf("CalculateStats() error = %v", err)
	}
	if stats.TotalPhotos != 40 {
		t.Errorf("TotalPhotos = %d, want 40", stats.TotalPhotos)
	}
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"import", "import"},
		{"with space", "with_space"},
		{"semi;colon", "semi_colon"},
		{"new\nline", "new_line"},
	}

	for _, tt := range tests {
		if got := sanitizeCommand(tt.in); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

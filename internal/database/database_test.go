package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()

	d, err := New(context.Background(), filepath.Join(t.TempDir(), "photos.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})
	return d
}

// seedPhoto is one fixture row. captured is RFC3339.
type seedPhoto struct {
	filename string
	captured string
	fileType string
	size     int64
	rating   int
	flagged  bool
	tags     []string
}

func seedProject(t *testing.T, d *Database, project string, photos []seedPhoto) int64 {
	t.Helper()
	ctx := context.Background()

	pid, err := d.UpsertProject(ctx, project)
	require.NoError(t, err)

	for _, sp := range photos {
		ts, err := time.Parse(time.RFC3339, sp.captured)
		require.NoError(t, err)

		ft := sp.fileType
		if ft == "" {
			ft = "jpeg"
		}
		p := &Photo{
			ProjectID:  pid,
			Filename:   sp.filename,
			CapturedAt: ts,
			FileType:   ft,
			Size:       sp.size,
			Rating:     sp.rating,
			Flagged:    sp.flagged,
		}
		id, err := d.InsertPhoto(ctx, p)
		require.NoError(t, err)

		for _, tag := range sp.tags {
			require.NoError(t, d.TagPhoto(ctx, id, tag))
		}
	}
	return pid
}

// tenPhotos is the standard fixture: distinct capture times one hour
// apart, so the canonical date-descending order is IMG_0010 down to
// IMG_0001.
func tenPhotos() []seedPhoto {
	photos := make([]seedPhoto, 0, 10)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		photos = append(photos, seedPhoto{
			filename: fmtFilename(i + 1),
			captured: base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339),
			size:     int64(100 * (i + 1)),
			rating:   i % 6,
			flagged:  i%2 == 0,
		})
	}
	return photos
}

func fmtFilename(n int) string {
	return fmt.Sprintf("IMG_%04d.CR3", n)
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func filenames(items []Photo) []string {
	names := make([]string, 0, len(items))
	for _, p := range items {
		names = append(names, p.Filename)
	}
	return names
}

package query

import (
	"testing"
	"time"
)

// TestNormalizeDefaults verifies zero/unknown enum values normalize to
// the listing defaults.
func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Filters
		want Filters
	}{
		{
			name: "zero value",
			in:   Filters{},
			want: Filters{SortField: SortByDate, SortOrder: SortDesc, FileType: FileTypeAny},
		},
		{
			name: "unknown enums",
			in:   Filters{SortField: "bogus", SortOrder: "sideways", FileType: "tiff"},
			want: Filters{SortField: SortByDate, SortOrder: SortDesc, FileType: FileTypeAny},
		},
		{
			name: "valid values preserved",
			in:   Filters{SortField: SortByName, SortOrder: SortAsc, FileType: FileTypeBoth, MinRating: 4},
			want: Filters{SortField: SortByName, SortOrder: SortAsc, FileType: FileTypeBoth, MinRating: 4},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.in.Normalize()
			if got.SortField != tt.want.SortField || got.SortOrder != tt.want.SortOrder || got.FileType != tt.want.FileType {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestFingerprint verifies fingerprint equality tracks cursor
// compatibility: any change to predicates, sort field, or direction
// must change the fingerprint, while tag ordering must not.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	base := Filters{
		ProjectID:   3,
		DateFrom:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		FileType:    FileTypeRaw,
		MinRating:   2,
		IncludeTags: []string{"keeper", "print"},
	}

	if base.Fingerprint() != base.Fingerprint() {
		t.Fatal("Fingerprint is not deterministic")
	}

	reordered := base
	reordered.IncludeTags = []string{"print", "keeper"}
	if base.Fingerprint() != reordered.Fingerprint() {
		t.Error("tag order changed the fingerprint")
	}

	mutations := map[string]func(Filters) Filters{
		"project": func(f Filters) Filters { f.ProjectID = 4; return f },
		"date":    func(f Filters) Filters { f.DateFrom = f.DateFrom.AddDate(0, 1, 0); return f },
		"type":    func(f Filters) Filters { f.FileType = FileTypeJPEG; return f },
		"rating":  func(f Filters) Filters { f.MinRating = 5; return f },
		"flagged": func(f Filters) Filters { f.FlaggedOnly = true; return f },
		"tags":    func(f Filters) Filters { f.IncludeTags = []string{"keeper"}; return f },
		"sort":    func(f Filters) Filters { f.SortField = SortBySize; return f },
		"order":   func(f Filters) Filters { f.SortOrder = SortAsc; return f },
	}

	for name, mutate := range mutations {
		if mutate(base).Fingerprint() == base.Fingerprint() {
			t.Errorf("changing %s did not change the fingerprint", name)
		}
	}
}

package query

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type SortField string
type SortOrder string

const (
	SortByDate   SortField = "date"
	SortByName   SortField = "name"
	SortBySize   SortField = "size"
	SortByRating SortField = "rating"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// FileType filters photos by which captures exist for a record. A
// record is "both" when a raw+jpeg pair was shot together.
type FileType string

const (
	FileTypeAny  FileType = "any"
	FileTypeRaw  FileType = "raw"
	FileTypeJPEG FileType = "jpeg"
	FileTypeBoth FileType = "both"
)

// Filters describes one listing scope: the predicates plus the sort
// configuration. The set of recognized fields is closed; cursors
// issued under one Filters value are meaningless under another, which
// is why Fingerprint covers every field including sort and order.
//
// ProjectID zero means the union view across all non-archived
// projects.
type Filters struct {
	ProjectID   int64
	DateFrom    time.Time
	DateTo      time.Time
	FileType    FileType
	MinRating   int
	FlaggedOnly bool
	IncludeTags []string
	ExcludeTags []string

	SortField SortField
	SortOrder SortOrder
}

// Normalize fills defaults for zero-valued sort configuration and
// unknown enum values. Listing code should call this once at the edge
// so the rest of the pipeline can assume a valid descriptor.
func (f Filters) Normalize() Filters {
	switch f.SortField {
	case SortByDate, SortByName, SortBySize, SortByRating:
	default:
		f.SortField = SortByDate
	}

	switch f.SortOrder {
	case SortAsc, SortDesc:
	default:
		f.SortOrder = SortDesc
	}

	switch f.FileType {
	case FileTypeAny, FileTypeRaw, FileTypeJPEG, FileTypeBoth:
	default:
		f.FileType = FileTypeAny
	}

	return f
}

// Fingerprint returns a deterministic identity for this filter/sort
// combination. Two Filters values with equal fingerprints issue
// interchangeable cursors; a fingerprint mismatch between LoadInitial
// and a later navigation call is a caller contract violation.
func (f Filters) Fingerprint() string {
	f = f.Normalize()

	include := append([]string(nil), f.IncludeTags...)
	exclude := append([]string(nil), f.ExcludeTags...)
	sort.Strings(include)
	sort.Strings(exclude)

	parts := []string{
		fmt.Sprintf("project=%d", f.ProjectID),
		"from=" + formatCutoff(f.DateFrom),
		"to=" + formatCutoff(f.DateTo),
		"type=" + string(f.FileType),
		fmt.Sprintf("rating=%d", f.MinRating),
		fmt.Sprintf("flagged=%t", f.FlaggedOnly),
		"tags=" + strings.Join(include, ","),
		"notags=" + strings.Join(exclude, ","),
		"sort=" + string(f.SortField),
		"order=" + string(f.SortOrder),
	}

	return strings.Join(parts, ";")
}

func formatCutoff(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

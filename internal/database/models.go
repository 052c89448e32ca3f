package database

import (
	"fmt"
	"time"

	"photo-stream/internal/query"
)

// Photo is one record in a project. FileType mirrors
// query.FileType values: "raw", "jpeg", or "both" for a raw+jpeg pair.
type Photo struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"projectId"`
	ProjectName string    `json:"projectName,omitempty"`
	Filename    string    `json:"filename"`
	CapturedAt  time.Time `json:"capturedAt"`
	FileType    string    `json:"fileType"`
	Size        int64     `json:"size"`
	Rating      int       `json:"rating"`
	Flagged     bool      `json:"flagged"`
	Tags        []string  `json:"tags,omitempty"`
}

// Key is the stable identity used for client-side deduplication across
// page boundaries. It is never used for ordering.
func (p Photo) Key() string {
	return fmt.Sprintf("%d::%s", p.ProjectID, p.Filename)
}

// SortValue returns the string form of the photo's value under the
// given sort field, as carried inside cursors. captured_at is stored
// as RFC3339 UTC text, so this is exactly the stored representation.
func (p Photo) SortValue(field query.SortField) string {
	switch field {
	case query.SortByName:
		return p.Filename
	case query.SortBySize:
		return fmt.Sprintf("%d", p.Size)
	case query.SortByRating:
		return fmt.Sprintf("%d", p.Rating)
	default:
		return p.CapturedAt.UTC().Format(time.RFC3339)
	}
}

// Project is a shoot owning photos. Archived projects are retained but
// excluded from union ("all projects") listings.
type Project struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Archived   bool      `json:"archived"`
	PhotoCount int       `json:"photoCount,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PageOptions describes one page fetch. At most one of Cursor and
// BeforeCursor may be set; both absent means the first page. Limit is
// clamped to [1, MaxPageSize] with DefaultPageSize when unset.
type PageOptions struct {
	Filters      query.Filters
	Cursor       string
	BeforeCursor string
	Limit        int
}

// PhotoPage is one fetched page in canonical forward order. A nil
// NextCursor/PrevCursor means no further data exists on that side at
// fetch time. Total is the filtered count and is advisory only: loop
// termination must rely on the cursors, never on Total.
type PhotoPage struct {
	Items           []Photo `json:"items"`
	NextCursor      *string `json:"next_cursor"`
	PrevCursor      *string `json:"prev_cursor"`
	Total           int     `json:"total"`
	UnfilteredTotal int     `json:"unfiltered_total"`
}

// LocateRequest identifies a photo to jump to: a filename, optionally
// scoped to one project when basenames collide across the union view.
type LocateRequest struct {
	Filters   query.Filters
	Filename  string
	ProjectID int64
	Limit     int
}

// LocateResult is the page containing the located photo plus its index
// inside that page.
type LocateResult struct {
	PhotoPage
	IdxInItems int   `json:"idx_in_items"`
	Target     Photo `json:"target"`
}

// Stats summarizes the indexed collection for the stats endpoint.
type Stats struct {
	TotalPhotos      int `json:"totalPhotos"`
	TotalProjects    int `json:"totalProjects"`
	ArchivedProjects int `json:"archivedProjects"`
	FlaggedPhotos    int `json:"flaggedPhotos"`
	TotalTags        int `json:"totalTags"`
}

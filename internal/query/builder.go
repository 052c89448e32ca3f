package query

import (
	"fmt"
	"strconv"
	"strings"

	"photo-stream/internal/cursor"
)

// Direction selects which side of the cursor a page is fetched from.
type Direction string

const (
	// DirNext fetches the page strictly after the cursor in the
	// configured order.
	DirNext Direction = "next"
	// DirPrev fetches the page strictly before the cursor. The rows
	// come back inverted and must be re-reversed after scanning.
	DirPrev Direction = "prev"
)

// Predicate is a composed WHERE clause, its arguments, and the ORDER BY
// clause for one page fetch. The clauses reference the photos table as
// "p" and the joined projects table as "j".
type Predicate struct {
	Where string
	Args  []interface{}
	Order string

	// Reversed is set for backward fetches: the query ran with the
	// order inverted, so the caller must reverse the scanned rows to
	// restore the canonical forward order.
	Reversed bool
}

// Build composes the boundary predicate and ordering for one page
// fetch under the given filters. cur is nil for the first page.
//
// The order is always (sort column, id): the id tie-break makes the
// comparison total when the sort column holds duplicates, without it
// keyset paging is not well-defined. Absent filters contribute no SQL
// at all, which keeps the query plans stable.
func Build(f Filters, cur *cursor.Cursor, dir Direction) (Predicate, error) {
	f = f.Normalize()

	var clauses []string
	var args []interface{}

	if f.ProjectID > 0 {
		clauses = append(clauses, "p.project_id = ?")
		args = append(args, f.ProjectID)
	} else {
		// Union view spans every project that is not archived.
		clauses = append(clauses, "j.archived = 0")
	}

	if !f.DateFrom.IsZero() {
		clauses = append(clauses, "p.captured_at >= ?")
		args = append(args, formatCutoff(f.DateFrom))
	}
	if !f.DateTo.IsZero() {
		clauses = append(clauses, "p.captured_at <= ?")
		args = append(args, formatCutoff(f.DateTo))
	}

	switch f.FileType {
	case FileTypeRaw:
		clauses = append(clauses, "p.file_type IN ('raw', 'both')")
	case FileTypeJPEG:
		clauses = append(clauses, "p.file_type IN ('jpeg', 'both')")
	case FileTypeBoth:
		clauses = append(clauses, "p.file_type = 'both'")
	}

	if f.MinRating > 0 {
		clauses = append(clauses, "p.rating >= ?")
		args = append(args, f.MinRating)
	}
	if f.FlaggedOnly {
		clauses = append(clauses, "p.flagged = 1")
	}

	for _, tag := range f.IncludeTags {
		clauses = append(clauses, `EXISTS (
			SELECT 1 FROM photo_tags pt
			INNER JOIN tags t ON pt.tag_id = t.id
			WHERE pt.photo_id = p.id AND t.name = ?
		)`)
		args = append(args, tag)
	}
	if len(f.ExcludeTags) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.ExcludeTags)), ", ")
		clauses = append(clauses, fmt.Sprintf(`NOT EXISTS (
			SELECT 1 FROM photo_tags pt
			INNER JOIN tags t ON pt.tag_id = t.id
			WHERE pt.photo_id = p.id AND t.name IN (%s)
		)`, placeholders))
		for _, tag := range f.ExcludeTags {
			args = append(args, tag)
		}
	}

	if cur != nil {
		boundary, boundaryArgs, err := boundaryClause(f, *cur, dir)
		if err != nil {
			return Predicate{}, err
		}
		clauses = append(clauses, boundary)
		args = append(args, boundaryArgs...)
	}

	return Predicate{
		Where:    strings.Join(clauses, " AND "),
		Args:     args,
		Order:    orderClause(f, dir),
		Reversed: dir == DirPrev,
	}, nil
}

// boundaryClause selects rows strictly beyond the cursor. For a
// descending sort, "next" means smaller values:
//
//	s < v OR (s = v AND id < i)
//
// mirrored for ascending. "prev" is the logical inverse of "next".
func boundaryClause(f Filters, cur cursor.Cursor, dir Direction) (string, []interface{}, error) {
	value, err := sortArg(f.SortField, cur.SortValue)
	if err != nil {
		return "", nil, err
	}

	cmp := "<"
	if f.SortOrder == SortAsc {
		cmp = ">"
	}
	if dir == DirPrev {
		cmp = invert(cmp)
	}

	col := SortColumn(f.SortField)
	clause := fmt.Sprintf("(%s %s ? OR (%s = ? AND p.id %s ?))", col, cmp, col, cmp)
	return clause, []interface{}{value, value, cur.ID}, nil
}

func orderClause(f Filters, dir Direction) string {
	sqlDir := "DESC"
	if f.SortOrder == SortAsc {
		sqlDir = "ASC"
	}
	if dir == DirPrev {
		if sqlDir == "DESC" {
			sqlDir = "ASC"
		} else {
			sqlDir = "DESC"
		}
	}
	return fmt.Sprintf("%s %s, p.id %s", SortColumn(f.SortField), sqlDir, sqlDir)
}

// SortColumn maps a sort field to its photos-table column.
func SortColumn(field SortField) string {
	switch field {
	case SortByName:
		return "p.filename"
	case SortBySize:
		return "p.size"
	case SortByRating:
		return "p.rating"
	default:
		return "p.captured_at"
	}
}

// sortArg converts the cursor's string sort value to the type the sort
// column compares as. captured_at is stored as RFC3339 text so string
// comparison is chronological; size and rating are integers.
func sortArg(field SortField, value string) (interface{}, error) {
	switch field {
	case SortBySize, SortByRating:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: sort value %q is not numeric", cursor.ErrMalformed, value)
		}
		return n, nil
	default:
		return value, nil
	}
}

func invert(cmp string) string {
	if cmp == "<" {
		return ">"
	}
	return "<"
}

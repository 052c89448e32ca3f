package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"photo-stream/internal/cursor"
	"photo-stream/internal/database"
	"photo-stream/internal/logging"
	"photo-stream/internal/query"
)

// GetPhotos serves one cursor-bounded page of the photo listing.
//
// "cursor" pages forward, "before_cursor" pages backward; they are
// mutually exclusive. A cursor that fails to decode is treated as
// absent (the listing restarts from the first page) rather than
// erroring, since stale bookmarks and hand-edited URLs are routine.
func (h *Handlers) GetPhotos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	cur := q.Get("cursor")
	before := q.Get("before_cursor")
	if cur != "" && before != "" {
		writeJSONError(w, "cursor and before_cursor are mutually exclusive", http.StatusBadRequest)
		return
	}

	cur = validCursorOrEmpty(cur)
	before = validCursorOrEmpty(before)

	opts := database.PageOptions{
		Filters:      parseFilters(q),
		Cursor:       cur,
		BeforeCursor: before,
		Limit:        parseLimit(q, h.pageSize),
	}

	page, err := h.db.FetchPage(r.Context(), opts)
	if err != nil {
		logging.Error("GetPhotos: %v", err)
		writeJSONError(w, "failed to fetch photos", http.StatusInternalServerError)
		return
	}

	// Encode empty pages as [] rather than null.
	if page.Items == nil {
		page.Items = []database.Photo{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, page)
}

// LocatePhoto resolves a deep link: it returns the page containing the
// named photo under the active filters, plus the photo's index within
// that page. An unresolvable target is a 404, never a silent first
// page.
func (h *Handlers) LocatePhoto(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filename := q.Get("filename")
	if filename == "" {
		writeJSONError(w, "filename is required", http.StatusBadRequest)
		return
	}

	req := database.LocateRequest{
		Filters:  parseFilters(q),
		Filename: filename,
		Limit:    parseLimit(q, h.pageSize),
	}
	if v := q.Get("project_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.ProjectID = id
		}
	}

	res, err := h.db.Locate(r.Context(), req)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeJSONError(w, "photo not found under the active filters", http.StatusNotFound)
			return
		}
		logging.Error("LocatePhoto: %v", err)
		writeJSONError(w, "failed to locate photo", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, res)
}

// validCursorOrEmpty decodes token and returns it unchanged if valid,
// or "" if it is malformed. The drop is logged: a malformed token is
// worth noticing in aggregate even though each one is harmless.
func validCursorOrEmpty(token string) string {
	if token == "" {
		return ""
	}
	if _, err := cursor.Decode(token); err != nil {
		logging.Warn("dropping malformed cursor %q: %v", token, err)
		return ""
	}
	return token
}

func parseLimit(q map[string][]string, fallback int) int {
	vals := q["limit"]
	if len(vals) == 0 || vals[0] == "" {
		return fallback
	}
	n, err := strconv.Atoi(vals[0])
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// parseFilters builds the listing scope from query parameters. Unknown
// or unparsable values fall back to defaults; filters never fail a
// request.
func parseFilters(q map[string][]string) query.Filters {
	get := func(key string) string {
		if vals := q[key]; len(vals) > 0 {
			return vals[0]
		}
		return ""
	}

	f := query.Filters{
		FileType:  query.FileType(get("type")),
		SortField: query.SortField(get("sort")),
		SortOrder: query.SortOrder(get("order")),
	}

	if v := get("project_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.ProjectID = id
		}
	}
	if v := get("from"); v != "" {
		if ts, err := parseDateParam(v, false); err == nil {
			f.DateFrom = ts
		}
	}
	if v := get("to"); v != "" {
		if ts, err := parseDateParam(v, true); err == nil {
			f.DateTo = ts
		}
	}
	if v := get("min_rating"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.MinRating = n
		}
	}
	if v := get("flagged"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.FlaggedOnly = b
		}
	}
	if v := get("tags"); v != "" {
		f.IncludeTags = splitTags(v)
	}
	if v := get("exclude_tags"); v != "" {
		f.ExcludeTags = splitTags(v)
	}

	return f.Normalize()
}

// parseDateParam accepts either a full RFC3339 timestamp or a bare
// date. A bare "to" date extends to the end of that day so date ranges
// behave inclusively.
func parseDateParam(v string, endOfDay bool) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		ts = ts.Add(24*time.Hour - time.Second)
	}
	return ts, nil
}

func splitTags(v string) []string {
	var tags []string
	for _, t := range strings.Split(v, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

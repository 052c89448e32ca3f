package window

import (
	"strconv"

	"photo-stream/internal/query"
)

// DeltaKind classifies an external mutation notification.
type DeltaKind string

const (
	DeltaInsert DeltaKind = "insert"
	DeltaRemove DeltaKind = "remove"
	DeltaUpdate DeltaKind = "update"
)

// Delta is one change event applied to the cached window. Key is the
// item's stable deduplication key; Item carries the new value for
// insert and update events.
type Delta[T any] struct {
	Kind DeltaKind
	Key  string
	Item T
}

// DeltaOutcome reports how a change event affected the window.
type DeltaOutcome string

const (
	// DeltaApplied means the cached window was patched in place.
	DeltaApplied DeltaOutcome = "applied"
	// DeltaIgnored means the event fell outside the cached region and
	// will surface naturally through later cursor fetches.
	DeltaIgnored DeltaOutcome = "ignored"
	// DeltaStale means an insert landed inside the cached region; the
	// window cannot place it and the owner should Reset and reload.
	DeltaStale DeltaOutcome = "stale"
)

// ApplyDelta applies one external mutation notification.
//
// Removes and field updates are patched in place: the dedup key leaves
// or keeps its slot and ordering is unaffected (updates must not touch
// order-relevant fields; a sort-value change is structurally an insert
// plus a remove). Inserts cannot be placed without re-querying, so an
// insert whose sort position falls inside the cached run marks the
// window stale instead of guessing.
func (m *Manager[T]) ApplyDelta(d Delta[T]) DeltaOutcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return DeltaIgnored
	}

	switch d.Kind {
	case DeltaRemove:
		return m.removeLocked(d.Key)
	case DeltaUpdate:
		return m.updateLocked(d.Key, d.Item)
	case DeltaInsert:
		return m.insertLocked(d.Item)
	default:
		return DeltaIgnored
	}
}

func (m *Manager[T]) removeLocked(key string) DeltaOutcome {
	if _, ok := m.seen[key]; !ok {
		return DeltaIgnored
	}

	for _, p := range m.pages {
		for i, item := range p.Items {
			if m.keyOf(item) != key {
				continue
			}
			p.Items = append(p.Items[:i], p.Items[i+1:]...)
			delete(m.seen, key)
			m.totalItems--
			// An emptied page keeps its slot: its cursors still bound
			// the region and keep both directions resumable.
			return DeltaApplied
		}
	}

	// Key tracked but item not found would mean the dedup set and the
	// pages disagree; treat as ignored rather than corrupt state.
	delete(m.seen, key)
	return DeltaIgnored
}

func (m *Manager[T]) updateLocked(key string, item T) DeltaOutcome {
	if _, ok := m.seen[key]; !ok {
		return DeltaIgnored
	}

	for _, p := range m.pages {
		for i, cached := range p.Items {
			if m.keyOf(cached) == key {
				p.Items[i] = item
				return DeltaApplied
			}
		}
	}
	return DeltaIgnored
}

func (m *Manager[T]) insertLocked(item T) DeltaOutcome {
	first, last, ok := m.boundsLocked()
	if !ok {
		// Nothing cached; the insert surfaces on the next load.
		return DeltaIgnored
	}

	s, id := m.sortKeyOf(item)
	fs, fid := m.sortKeyOf(first)
	ls, lid := m.sortKeyOf(last)

	// Canonical order runs first..last; an insert strictly outside
	// those bounds belongs to a region the window has not cached.
	afterFirst := m.comesAfter(s, id, fs, fid)
	beforeLast := m.comesAfter(ls, lid, s, id)

	if afterFirst && beforeLast {
		m.stale = true
		return DeltaStale
	}
	return DeltaIgnored
}

func (m *Manager[T]) boundsLocked() (first, last T, ok bool) {
	var items []T
	for _, p := range m.pages {
		if len(p.Items) > 0 {
			items = append(items, p.Items[0])
			items = append(items, p.Items[len(p.Items)-1])
		}
	}
	if len(items) == 0 {
		var zero T
		return zero, zero, false
	}
	return items[0], items[len(items)-1], true
}

// comesAfter reports whether (s1, id1) sorts strictly after (s2, id2)
// in the window's canonical order.
func (m *Manager[T]) comesAfter(s1 string, id1 int64, s2 string, id2 int64) bool {
	c := compareSortValues(m.cfg.Filters.SortField, s1, s2)
	if c == 0 {
		c = compareInt64(id1, id2)
	}
	if m.cfg.Filters.SortOrder == query.SortDesc {
		return c < 0
	}
	return c > 0
}

// compareSortValues compares two cursor sort values under a field's
// comparison semantics: numeric for size and rating, lexical
// otherwise (RFC3339 timestamps and filenames compare correctly as
// strings).
func compareSortValues(field query.SortField, a, b string) int {
	switch field {
	case query.SortBySize, query.SortByRating:
		na, errA := strconv.ParseInt(a, 10, 64)
		nb, errB := strconv.ParseInt(b, 10, 64)
		if errA == nil && errB == nil {
			return compareInt64(na, nb)
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

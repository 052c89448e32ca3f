package window

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"photo-stream/internal/logging"
	"photo-stream/internal/metrics"
	"photo-stream/internal/query"
)

// ErrScopeMismatch is returned when a navigation call presents filters
// whose fingerprint differs from the scope the window was seeded with.
// Cursors are scope-bound; mixing predicates is a caller contract
// violation, not a state to recover from.
var ErrScopeMismatch = errors.New("filter scope does not match window scope")

// Outcome classifies how a load call ended. The bounded empty-slice
// retry policy is visible here rather than scattered across call
// sites.
type Outcome string

const (
	// OutcomeLoaded means a page with at least one new item was added.
	OutcomeLoaded Outcome = "loaded"
	// OutcomeNoMoreData means the server reported the end of the
	// listing on that side (nil continuation cursor).
	OutcomeNoMoreData Outcome = "no_more_data"
	// OutcomeExhausted means every slice this round was empty after
	// deduplication but a continuation cursor remains: no further
	// distinguishable data right now, and the caller may try again.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeSkipped means the call was dropped: a load in that
	// direction was already in flight, or there was nothing to load.
	OutcomeSkipped Outcome = "skipped"
)

// LoadResult reports one load call.
type LoadResult struct {
	Outcome Outcome
	// Added is the number of items that entered the window.
	Added int
}

// maxEmptyRetries bounds how many consecutive empty-after-dedup slices
// a single load call will advance past. The underlying collection can
// mutate between fetches, so an empty slice with a continuation cursor
// means "this region shifted", not "no more data".
const maxEmptyRetries = 3

// Config configures a Manager.
type Config struct {
	// Filters is the scope this window is bound to, including sort
	// field and direction. Changing any part requires a new Manager
	// (or Reset plus LoadInitial under the new scope).
	Filters query.Filters
	// PageSize is the fetch limit per page.
	PageSize int
	// MaxPages caps the number of cached pages before eviction.
	MaxPages int
	// MinWindowItems is a content floor: eviction is skipped while the
	// buffered item count is below it, even over the page cap.
	MinWindowItems int
}

const (
	defaultPageSize  = 100
	defaultMaxPages  = 5
	defaultMinItems  = 60
	minEvictionPages = 3
)

// Manager holds an ordered, contiguous run of loaded pages over one
// filter/sort scope. All methods are safe for concurrent use, though
// the intended usage is a single logical owner issuing one navigation
// at a time; a second LoadNext/LoadPrev while one is pending is
// dropped, not queued.
type Manager[T any] struct {
	fetcher     Fetcher[T]
	keyOf       func(T) string
	sortKeyOf   func(T) (string, int64)
	cfg         Config
	fingerprint string

	mu         sync.Mutex
	pages      []*Page[T]
	headPrev   *string
	tailNext   *string
	seen       map[string]struct{}
	totalItems int
	loaded     bool
	stale      bool

	// generation guards abandoned in-flight calls: a fetch that
	// resolves after Reset must not corrupt the new window state.
	generation   uint64
	nextInFlight bool
	prevInFlight bool
}

// NewManager creates an empty window over one scope. keyOf supplies
// the stable deduplication key for an item (never used for ordering);
// sortKeyOf supplies the (sort value, id) pair used to position
// external change events relative to the cached run.
func NewManager[T any](fetcher Fetcher[T], cfg Config, keyOf func(T) string, sortKeyOf func(T) (string, int64)) *Manager[T] {
	if cfg.PageSize < 1 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.MaxPages < 1 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.MinWindowItems < 1 {
		cfg.MinWindowItems = defaultMinItems
	}
	cfg.Filters = cfg.Filters.Normalize()

	return &Manager[T]{
		fetcher:     fetcher,
		keyOf:       keyOf,
		sortKeyOf:   sortKeyOf,
		cfg:         cfg,
		fingerprint: cfg.Filters.Fingerprint(),
		seen:        make(map[string]struct{}),
	}
}

// LoadInitial clears all state and fetches the first page of the
// scope. The window's head and tail cursors are seeded directly from
// that page, so a single-page listing correctly reports no more pages
// in either direction.
func (m *Manager[T]) LoadInitial(ctx context.Context) (LoadResult, error) {
	m.mu.Lock()
	m.resetLocked()
	gen := m.generation
	req := Request{Limit: m.cfg.PageSize, Filters: m.cfg.Filters}
	m.mu.Unlock()

	page, err := m.fetcher.FetchPage(ctx, req)
	if err != nil {
		return LoadResult{Outcome: OutcomeSkipped}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		// Reset raced the fetch; the result belongs to a dead window.
		return LoadResult{Outcome: OutcomeSkipped}, nil
	}

	kept := m.dedupLocked(page.Items)
	m.pages = []*Page[T]{{
		Items:      kept,
		NextCursor: page.NextCursor,
		PrevCursor: page.PrevCursor,
		Total:      page.Total,
	}}
	m.headPrev = page.PrevCursor
	m.tailNext = page.NextCursor
	m.totalItems = len(kept)
	m.loaded = true

	return LoadResult{Outcome: OutcomeLoaded, Added: len(kept)}, nil
}

// LoadNext appends the page after the current tail. The call is
// dropped when a forward load is already pending or the tail cursor is
// nil. Empty-after-dedup slices with a continuation cursor are skipped
// by advancing along the cursor chain, up to maxEmptyRetries.
func (m *Manager[T]) LoadNext(ctx context.Context, f query.Filters) (LoadResult, error) {
	return m.load(ctx, f, true)
}

// LoadPrev is the mirror of LoadNext: it prepends the page before the
// current head and evicts from the tail when over capacity.
func (m *Manager[T]) LoadPrev(ctx context.Context, f query.Filters) (LoadResult, error) {
	return m.load(ctx, f, false)
}

func (m *Manager[T]) load(ctx context.Context, f query.Filters, forward bool) (LoadResult, error) {
	m.mu.Lock()

	if fp := f.Fingerprint(); fp != m.fingerprint {
		m.mu.Unlock()
		logging.Error("window: navigation with mismatched filters: window=%q call=%q", m.fingerprint, fp)
		return LoadResult{Outcome: OutcomeSkipped}, fmt.Errorf("%w: %q", ErrScopeMismatch, fp)
	}

	inFlight, edge := &m.nextInFlight, m.tailNext
	if !forward {
		inFlight, edge = &m.prevInFlight, m.headPrev
	}
	if !m.loaded || *inFlight || edge == nil {
		m.mu.Unlock()
		return LoadResult{Outcome: OutcomeSkipped}, nil
	}

	*inFlight = true
	gen := m.generation
	cursor := *edge
	m.mu.Unlock()

	for attempt := 0; attempt < maxEmptyRetries; attempt++ {
		req := Request{Limit: m.cfg.PageSize, Filters: m.cfg.Filters}
		if forward {
			req.Cursor = cursor
		} else {
			req.BeforeCursor = cursor
		}

		page, err := m.fetcher.FetchPage(ctx, req)

		m.mu.Lock()
		if gen != m.generation {
			// The window was reset while the fetch was in flight. The
			// guard was cleared by the reset; discard the result.
			m.mu.Unlock()
			return LoadResult{Outcome: OutcomeSkipped}, nil
		}

		if err != nil {
			// Propagate unmodified; no partial page is ever applied.
			m.clearGuardLocked(forward)
			m.mu.Unlock()
			return LoadResult{Outcome: OutcomeSkipped}, err
		}

		kept := m.dedupLocked(page.Items)
		cont := page.NextCursor
		if !forward {
			cont = page.PrevCursor
		}

		if len(kept) == 0 {
			if cont == nil {
				// The server says there is genuinely no more data on
				// this side.
				m.setEdgeLocked(forward, nil)
				m.clearGuardLocked(forward)
				m.mu.Unlock()
				return LoadResult{Outcome: OutcomeNoMoreData}, nil
			}
			// This slice happened to be empty (everything in it was
			// already seen, or it was deleted between calls). Advance
			// along the cursor chain and retry.
			m.setEdgeLocked(forward, cont)
			cursor = *cont
			metrics.EmptySliceRetries.Inc()
			m.mu.Unlock()
			continue
		}

		newPage := &Page[T]{
			Items:      kept,
			NextCursor: page.NextCursor,
			PrevCursor: page.PrevCursor,
			Total:      page.Total,
		}

		if forward {
			m.pages = append(m.pages, newPage)
			m.tailNext = page.NextCursor
			m.totalItems += len(kept)
			m.evictLocked(true)
		} else {
			m.pages = append([]*Page[T]{newPage}, m.pages...)
			m.headPrev = page.PrevCursor
			m.totalItems += len(kept)
			m.evictLocked(false)
			// Backward loads can change which page is last (tail
			// eviction above); the tail cursor must describe the
			// actual last page.
			m.tailNext = m.pages[len(m.pages)-1].NextCursor
		}

		m.clearGuardLocked(forward)
		m.mu.Unlock()
		return LoadResult{Outcome: OutcomeLoaded, Added: len(kept)}, nil
	}

	m.mu.Lock()
	if gen == m.generation {
		m.clearGuardLocked(forward)
	}
	m.mu.Unlock()

	// Not an error: no further distinguishable data this round. The
	// edge cursor was advanced, so a later call resumes further on.
	return LoadResult{Outcome: OutcomeExhausted}, nil
}

// Reset discards all cached pages and returns the window to empty.
// Any in-flight load settles against the old generation and is
// discarded.
func (m *Manager[T]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Manager[T]) resetLocked() {
	m.generation++
	m.pages = nil
	m.headPrev = nil
	m.tailNext = nil
	m.seen = make(map[string]struct{})
	m.totalItems = 0
	m.loaded = false
	m.stale = false
	m.nextInFlight = false
	m.prevInFlight = false
}

// dedupLocked filters out items whose key is already buffered.
// Duplicates are legitimate - the same record can appear in two fetch
// responses when data shifts between calls - so they are dropped
// silently rather than treated as errors.
func (m *Manager[T]) dedupLocked(items []T) []T {
	kept := make([]T, 0, len(items))
	for _, item := range items {
		key := m.keyOf(item)
		if _, dup := m.seen[key]; dup {
			metrics.DedupDropped.Inc()
			continue
		}
		m.seen[key] = struct{}{}
		kept = append(kept, item)
	}
	return kept
}

// evictLocked drops pages from the far edge while over the page cap.
// Eviction is skipped, even over the cap, when the window is too small
// to give any of it up: fewer than three pages, a buffered item count
// under the content floor, or (for head eviction) a stunted tail page
// that would leave the window unable to serve a later jump.
func (m *Manager[T]) evictLocked(fromHead bool) {
	for len(m.pages) > m.cfg.MaxPages {
		if len(m.pages) < minEvictionPages {
			return
		}

		var victim *Page[T]
		if fromHead {
			victim = m.pages[0]
			tail := m.pages[len(m.pages)-1]
			if len(tail.Items) < m.cfg.PageSize/2 {
				return
			}
		} else {
			victim = m.pages[len(m.pages)-1]
		}

		if m.totalItems-len(victim.Items) < m.cfg.MinWindowItems {
			return
		}

		for _, item := range victim.Items {
			delete(m.seen, m.keyOf(item))
		}
		m.totalItems -= len(victim.Items)

		if fromHead {
			m.pages = m.pages[1:]
			// The evicted page's predecessor region is still reachable
			// through a fresh before_cursor fetch; point the head at
			// the new first page rather than discarding it.
			m.headPrev = m.pages[0].PrevCursor
			metrics.WindowEvictions.WithLabelValues("head").Inc()
		} else {
			m.pages = m.pages[:len(m.pages)-1]
			m.tailNext = m.pages[len(m.pages)-1].NextCursor
			metrics.WindowEvictions.WithLabelValues("tail").Inc()
		}
	}
}

func (m *Manager[T]) clearGuardLocked(forward bool) {
	if forward {
		m.nextInFlight = false
	} else {
		m.prevInFlight = false
	}
}

func (m *Manager[T]) setEdgeLocked(forward bool, c *string) {
	if forward {
		m.tailNext = c
	} else {
		m.headPrev = c
	}
}

// Items returns the flattened window contents in canonical order.
func (m *Manager[T]) Items() []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]T, 0, m.totalItems)
	for _, p := range m.pages {
		out = append(out, p.Items...)
	}
	return out
}

// Len returns the buffered item count.
func (m *Manager[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalItems
}

// PageCount returns the number of cached pages.
func (m *Manager[T]) PageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pages)
}

// HasPrev reports whether data exists before the window's head.
func (m *Manager[T]) HasPrev() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.headPrev != nil
}

// HasNext reports whether data exists after the window's tail.
func (m *Manager[T]) HasNext() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tailNext != nil
}

// Stale reports whether an external insert landed inside the cached
// region, in which case the owner should Reset and reload.
func (m *Manager[T]) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

// Fingerprint returns the scope identity this window was created for.
func (m *Manager[T]) Fingerprint() string {
	return m.fingerprint
}

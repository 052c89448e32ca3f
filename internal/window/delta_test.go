package window

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-stream/internal/query"
)

func loadedManager(t *testing.T, n int, cfg Config) *Manager[rec] {
	t.Helper()

	m, _ := newTestManager(makeRecs(n), cfg)
	_, err := m.LoadInitial(context.Background())
	require.NoError(t, err)
	return m
}

func TestApplyDeltaRemove(t *testing.T) {
	t.Parallel()

	m := loadedManager(t, 10, Config{PageSize: 10})
	victim := m.Items()[4]

	out := m.ApplyDelta(Delta[rec]{Kind: DeltaRemove, Key: keyOf(victim)})
	assert.Equal(t, DeltaApplied, out)
	assert.Equal(t, 9, m.Len())
	for _, r := range m.Items() {
		assert.NotEqual(t, keyOf(victim), keyOf(r))
	}
	assertInvariants(t, m)

	// The key is free again: a later fetch carrying it is not deduped.
	out = m.ApplyDelta(Delta[rec]{Kind: DeltaRemove, Key: keyOf(victim)})
	assert.Equal(t, DeltaIgnored, out, "removing an absent key is a no-op")
}

func TestApplyDeltaRemoveEmptiesPage(t *testing.T) {
	t.Parallel()

	m := loadedManager(t, 6, Config{PageSize: 3, MaxPages: 10})
	_, err := m.LoadNext(context.Background(), m.cfg.Filters)
	require.NoError(t, err)
	require.Equal(t, 2, m.PageCount())

	// Empty out the second page entirely.
	for _, r := range m.Items()[3:] {
		out := m.ApplyDelta(Delta[rec]{Kind: DeltaRemove, Key: keyOf(r)})
		require.Equal(t, DeltaApplied, out)
	}

	// The emptied page keeps its slot so its cursors still bound the
	// region.
	assert.Equal(t, 2, m.PageCount())
	assert.Equal(t, 3, m.Len())
	assertInvariants(t, m)
}

func TestApplyDeltaUpdate(t *testing.T) {
	t.Parallel()

	m := loadedManager(t, 10, Config{PageSize: 10})
	target := m.Items()[2]

	patched := target
	out := m.ApplyDelta(Delta[rec]{Kind: DeltaUpdate, Key: keyOf(target), Item: patched})
	assert.Equal(t, DeltaApplied, out)
	assert.Equal(t, 10, m.Len())
	assertInvariants(t, m)

	out = m.ApplyDelta(Delta[rec]{Kind: DeltaUpdate, Key: "unknown.jpg", Item: patched})
	assert.Equal(t, DeltaIgnored, out)
}

func TestApplyDeltaInsert(t *testing.T) {
	t.Parallel()

	// Window caches the first 5 of 20 in descending order, so it spans
	// the newest records.
	m := loadedManager(t, 20, Config{PageSize: 5})
	newest := m.Items()[0]

	t.Run("inside cached run marks stale", func(t *testing.T) {
		// Same sort value as the newest item with a lower id sorts
		// strictly between cached items under descending order.
		inside := rec{ID: newest.ID - 1, Sort: newest.Sort, Name: "between.jpg"}

		out := m.ApplyDelta(Delta[rec]{Kind: DeltaInsert, Key: keyOf(inside), Item: inside})
		assert.Equal(t, DeltaStale, out)
		assert.True(t, m.Stale())
	})

	t.Run("outside cached run is ignored", func(t *testing.T) {
		m2 := loadedManager(t, 20, Config{PageSize: 5})
		older := rec{ID: 1000, Sort: "2020-01-01T00:00:00Z", Name: "ancient.jpg"}

		out := m2.ApplyDelta(Delta[rec]{Kind: DeltaInsert, Key: keyOf(older), Item: older})
		assert.Equal(t, DeltaIgnored, out)
		assert.False(t, m2.Stale())
	})

	t.Run("empty window ignores inserts", func(t *testing.T) {
		m3, _ := newTestManager(makeRecs(5), Config{PageSize: 5})
		out := m3.ApplyDelta(Delta[rec]{Kind: DeltaInsert, Key: "x.jpg", Item: rec{ID: 1}})
		assert.Equal(t, DeltaIgnored, out)
	})
}

func TestCompareSortValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field query.SortField
		a, b  string
		want  int
	}{
		{"size numeric not lexical", query.SortBySize, "9", "10", -1},
		{"rating numeric", query.SortByRating, "5", "3", 1},
		{"date lexical", query.SortByDate, "2024-02-01T00:00:00Z", "2024-01-31T00:00:00Z", 1},
		{"name lexical", query.SortByName, "a.jpg", "b.jpg", -1},
		{"equal", query.SortByDate, "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", 0},
		{"size unparsable falls back to lexical", query.SortBySize, "abc", "abd", -1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, compareSortValues(tt.field, tt.a, tt.b))
		})
	}
}

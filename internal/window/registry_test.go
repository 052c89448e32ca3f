package window

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetCreatesOnce(t *testing.T) {
	t.Parallel()

	r := NewRegistry[rec]()
	created := 0
	create := func() *Manager[rec] {
		created++
		m, _ := newTestManager(makeRecs(3), Config{PageSize: 10})
		return m
	}

	key := Key{Mode: "grid", ScopeID: 7}
	a := r.Get(key, create)
	b := r.Get(key, create)

	assert.Same(t, a, b)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, r.Len())

	// A different scope gets its own window.
	c := r.Get(Key{Mode: "grid", ScopeID: 8}, create)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryReset(t *testing.T) {
	t.Parallel()

	r := NewRegistry[rec]()
	key := Key{Mode: "table", ScopeID: 0}

	m := r.Get(key, func() *Manager[rec] {
		m, _ := newTestManager(makeRecs(5), Config{PageSize: 10})
		return m
	})
	_, err := m.LoadInitial(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, m.Len())

	r.Reset(key)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, r.Len(), "Reset keeps the window registered")

	// Resetting a key that was never registered is a no-op.
	r.Reset(Key{Mode: "table", ScopeID: 99})
}

func TestRegistryDrop(t *testing.T) {
	t.Parallel()

	r := NewRegistry[rec]()
	key := Key{Mode: "grid", ScopeID: 3}
	r.Get(key, func() *Manager[rec] {
		m, _ := newTestManager(nil, Config{PageSize: 10})
		return m
	})

	r.Drop(key)
	assert.Equal(t, 0, r.Len())
}

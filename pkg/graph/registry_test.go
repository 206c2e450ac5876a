package graph

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PublishAndLookup(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Lookup("/p/a.js")
	assert.False(t, ok)

	r.Publish("/p/a.js", []string{"zeta", "alpha"})

	names, ok := r.Lookup("/p/a.js")
	require.True(t, ok)
	assert.Equal(t, []string{"alpha", "zeta"}, names, "names stored sorted")
}

func TestRegistry_RepublishReplaces(t *testing.T) {
	r := NewRegistry()

	r.Publish("/p/a.js", []string{"old"})
	r.Publish("/p/a.js", []string{"new"})

	names, ok := r.Lookup("/p/a.js")
	require.True(t, ok)
	assert.Equal(t, []string{"new"}, names)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func(i int) {
			defer wg.Done()
			r.Publish(fmt.Sprintf("/p/%d.js", i), []string{"sym"})
		}(i)

		go func(i int) {
			defer wg.Done()
			// Concurrent lookups may miss not-yet-published entries; they
			// must never observe a partial one.
			if names, ok := r.Lookup(fmt.Sprintf("/p/%d.js", i)); ok {
				assert.Equal(t, []string{"sym"}, names)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, r.Len())
}

package cache

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadingCache_Get(t *testing.T) {
	c, err := NewLoadingCache[string](2)
	require.NoError(t, err)

	loads := 0
	load := func(v string) func() (string, error) {
		return func() (string, error) {
			loads++
			return v, nil
		}
	}

	v, err := c.Get("a", load("A"))
	require.NoError(t, err)
	assert.Equal(t, "A", v)

	v, err = c.Get("a", load("other"))
	require.NoError(t, err)
	assert.Equal(t, "A", v)
	assert.Equal(t, 1, loads)

	stats := c.GetStats()
	assert.Equal(t, CacheStats{Entries: 1, Hits: 1, Misses: 1}, stats)
}

func TestLoadingCache_Evicts(t *testing.T) {
	c, err := NewLoadingCache[int](2)
	require.NoError(t, err)

	for i := range 3 {
		_, err := c.Get(strconv.Itoa(i), func() (int, error) { return i, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.GetStats().Entries)

	reloaded := false
	_, err = c.Get("0", func() (int, error) { reloaded = true; return 0, nil })
	require.NoError(t, err)
	assert.True(t, reloaded)

	c.Purge()
	assert.Zero(t, c.GetStats().Entries)
}

func TestLoadingCache_ErrorNotCached(t *testing.T) {
	c, err := NewLoadingCache[int](4)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = c.Get("k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := c.Get("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestLoadingCache_Concurrent(t *testing.T) {
	c, err := NewLoadingCache[int](16)
	require.NoError(t, err)

	var loads atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get("shared", func() (int, error) {
				loads.Add(1)
				return 42, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, loads.Load(), int32(1))
	assert.Equal(t, 1, c.GetStats().Entries)
}

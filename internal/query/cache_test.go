package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFetch_CachesFreshSuccess(t *testing.T) {
	c := NewCache()
	key := ListKey("customer", map[string]int{"page": 1})

	var calls int32
	fn := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return "page-1", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Fetch(context.Background(), key, fn)
		require.NoError(t, err)
		assert.Equal(t, "page-1", v)
	}
	assert.EqualValues(t, 1, calls)
}

func TestFetch_KeepsPreviousDataWhileLoading(t *testing.T) {
	c := NewCache()
	page1 := ListKey("customer", map[string]int{"page": 1})
	page2 := ListKey("customer", map[string]int{"page": 2})
	require.NotEqual(t, page1, page2)

	_, err := c.Fetch(context.Background(), page1, func(ctx context.Context) (interface{}, error) {
		return "page-1-data", nil
	})
	require.NoError(t, err)

	// Invalidate page 1, then start a slow refetch; Peek must keep
	// serving the previous data instead of flashing empty.
	c.Invalidate(page1)
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Fetch(context.Background(), page1, func(ctx context.Context) (interface{}, error) {
			<-release
			return "page-1-v2", nil
		})
	}()

	require.Eventually(t, func() bool {
		snap, ok := c.Peek(page1)
		return ok && snap.Status == StatusLoading
	}, time.Second, time.Millisecond)

	snap, ok := c.Peek(page1)
	require.True(t, ok)
	assert.Equal(t, "page-1-data", snap.Data, "stale data stays visible")
	assert.True(t, snap.Stale)

	close(release)
	<-done
	snap, _ = c.Peek(page1)
	assert.Equal(t, "page-1-v2", snap.Data)
	assert.False(t, snap.Stale)
}

func TestFetch_DeduplicatesInFlight(t *testing.T) {
	c := NewCache()
	key := StatsKey("customer")

	var calls int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Fetch(context.Background(), key, fn)
			assert.NoError(t, err)
			assert.Equal(t, 42, v)
		}()
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) == 1
	}, time.Second, time.Millisecond)
	close(release)
	wg.Wait()
	assert.EqualValues(t, 1, calls)
}

func TestFetch_ErrorStateRefetches(t *testing.T) {
	c := NewCache()
	key := DetailKey("customer", "c1")

	boom := errors.New("boom")
	_, err := c.Fetch(context.Background(), key, func(ctx context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	snap, ok := c.Peek(key)
	require.True(t, ok)
	assert.Equal(t, StatusError, snap.Status)

	// A failed entry is not cached; the next fetch runs again.
	v, err := c.Fetch(context.Background(), key, func(ctx context.Context) (interface{}, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
}

func TestMutationEffects(t *testing.T) {
	seed := func(t *testing.T) (*Cache, Key, Key, Key) {
		t.Helper()
		c := NewCache()
		list := ListKey("health-insurance", map[string]int{"page": 1})
		stats := StatsKey("health-insurance")
		detail := DetailKey("health-insurance", "h1")
		for _, k := range []Key{list, stats, detail} {
			_, err := c.Fetch(context.Background(), k, func(ctx context.Context) (interface{}, error) {
				return "seeded", nil
			})
			require.NoError(t, err)
		}
		return c, list, stats, detail
	}

	refetched := func(c *Cache, k Key) bool {
		hit := false
		_, _ = c.Fetch(context.Background(), k, func(ctx context.Context) (interface{}, error) {
			hit = true
			return "refetched", nil
		})
		return hit
	}

	t.Run("create invalidates list and stats", func(t *testing.T) {
		c, list, stats, detail := seed(t)
		c.ApplyMutationEffects("health-insurance", MutationCreate, "", nil)

		assert.True(t, refetched(c, list))
		assert.True(t, refetched(c, stats))
		assert.False(t, refetched(c, detail), "detail untouched by create")
	})

	t.Run("update writes detail directly and invalidates list", func(t *testing.T) {
		c, list, stats, detail := seed(t)
		c.ApplyMutationEffects("health-insurance", MutationUpdate, "h1", "updated-entity")

		snap, ok := c.Peek(detail)
		require.True(t, ok)
		assert.Equal(t, "updated-entity", snap.Data)
		assert.False(t, refetched(c, detail), "no refetch round trip for the detail slot")
		assert.True(t, refetched(c, list))
		assert.False(t, refetched(c, stats))
	})

	t.Run("delete evicts detail and invalidates list and stats", func(t *testing.T) {
		c, list, stats, detail := seed(t)
		c.ApplyMutationEffects("health-insurance", MutationDelete, "h1", nil)

		_, ok := c.Peek(detail)
		assert.False(t, ok, "detail entry evicted")
		assert.True(t, refetched(c, list))
		assert.True(t, refetched(c, stats))
	})

	t.Run("toggle invalidates all three", func(t *testing.T) {
		c, list, stats, detail := seed(t)
		c.ApplyMutationEffects("health-insurance", MutationToggle, "h1", nil)

		assert.True(t, refetched(c, list))
		assert.True(t, refetched(c, stats))
		assert.True(t, refetched(c, detail))
	})

	t.Run("other entities untouched", func(t *testing.T) {
		c, _, _, _ := seed(t)
		otherList := ListKey("customer", map[string]int{"page": 1})
		_, err := c.Fetch(context.Background(), otherList, func(ctx context.Context) (interface{}, error) {
			return "customers", nil
		})
		require.NoError(t, err)

		c.ApplyMutationEffects("health-insurance", MutationCreate, "", nil)
		assert.False(t, refetched(c, otherList))
	})
}

func TestSubscribe_NotifiesOnChange(t *testing.T) {
	c := NewCache()
	ch, cancel := c.Subscribe()
	defer cancel()

	key := StatsKey("customer")
	c.Set(key, 7)

	select {
	case k := <-ch:
		assert.Equal(t, key, k)
	case <-time.After(time.Second):
		t.Fatal("no notification")
	}
}

func TestLateMutationResultIsTolerated(t *testing.T) {
	// A mutation resolving after its dialog has closed just writes the
	// cache; nothing to crash on.
	c := NewCache()
	c.ApplyMutationEffects("vehicle-insurance", MutationUpdate, "v9", "late-result")

	snap, ok := c.Peek(DetailKey("vehicle-insurance", "v9"))
	require.True(t, ok)
	assert.Equal(t, "late-result", snap.Data)
}

func TestNotices(t *testing.T) {
	n := NewNotices()
	ch, cancel := n.Subscribe()
	defer cancel()

	n.Success("Customer created")
	notice := <-ch
	assert.Equal(t, LevelSuccess, notice.Level)

	n.Failure(errors.New("plain transport error"), "Failed to create customer")
	notice = <-ch
	assert.Equal(t, LevelError, notice.Level)
	assert.Equal(t, "Failed to create customer", notice.Message)
}

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCache_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Fresh entry is returned without fetching", func(t *testing.T) {
		c := New("TestCache", 5*time.Minute)
		c.Set("user1", "cached-value")

		var calls int32
		v, err := c.Get(ctx, "user1", func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&calls, 1)
			return "fetched-value", nil
		})

		assert.NoError(t, err)
		assert.Equal(t, "cached-value", v)
		assert.EqualValues(t, 0, atomic.LoadInt32(&calls))
	})

	t.Run("Expired entry triggers a new fetch", func(t *testing.T) {
		current := time.Now()
		var mu sync.Mutex
		c := New("TestCache", 5*time.Minute).WithClock(func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return current
		})
		c.Set("user1", "stale-value")

		mu.Lock()
		current = current.Add(5 * time.Minute) // Exactly at TTL counts as expired
		mu.Unlock()

		v, err := c.Get(ctx, "user1", func(ctx context.Context) (interface{}, error) {
			return "fresh-value", nil
		})

		assert.NoError(t, err)
		assert.Equal(t, "fresh-value", v)
	})

	t.Run("Two concurrent gets for the same key issue one fetch", func(t *testing.T) {
		c := New("TestCache", 5*time.Minute)

		var calls int32
		started := make(chan struct{})
		release := make(chan struct{})
		fetch := func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&calls, 1)
			close(started)
			<-release
			return "shared-value", nil
		}

		results := make(chan interface{}, 2)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(ctx, "user1", fetch)
			assert.NoError(t, err)
			results <- v
		}()

		<-started // First fetch is in flight; second caller must join it.
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Get(ctx, "user1", func(ctx context.Context) (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				return "second-value", nil
			})
			assert.NoError(t, err)
			results <- v
		}()

		// Give the second goroutine a moment to park on the in-flight call.
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()
		close(results)

		assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "expected exactly one network call")
		for v := range results {
			assert.Equal(t, "shared-value", v)
		}
	})

	t.Run("Failed fetch leaves no entry behind", func(t *testing.T) {
		c := New("TestCache", 5*time.Minute)

		_, err := c.Get(ctx, "user1", func(ctx context.Context) (interface{}, error) {
			return nil, errors.New("backend unavailable")
		})
		assert.Error(t, err)

		_, ok := c.Peek("user1")
		assert.False(t, ok, "a failed fetch must not poison the cache")

		// The next call must hit the backend again.
		var calls int32
		v, err := c.Get(ctx, "user1", func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&calls, 1)
			return "recovered", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "recovered", v)
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	})

	t.Run("Zero TTL disables caching", func(t *testing.T) {
		c := New("TestCache", 0)

		var calls int32
		fetch := func(ctx context.Context) (interface{}, error) {
			return atomic.AddInt32(&calls, 1), nil
		}
		_, _ = c.Get(ctx, "user1", fetch)
		_, _ = c.Get(ctx, "user1", fetch)
		assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
		assert.Equal(t, 0, c.Len(), "a disabled cache must not accumulate entries")
	})
}

func TestTTLCache_Invalidate(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalidate forces the next get to refetch regardless of TTL", func(t *testing.T) {
		c := New("TestCache", 5*time.Minute)
		c.Set("user1", "cached-value")

		c.Invalidate("user1")

		var calls int32
		v, err := c.Get(ctx, "user1", func(ctx context.Context) (interface{}, error) {
			atomic.AddInt32(&calls, 1)
			return "fresh-value", nil
		})
		assert.NoError(t, err)
		assert.Equal(t, "fresh-value", v)
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	})

	t.Run("Invalidate on a missing key is a no-op", func(t *testing.T) {
		c := New("TestCache", 5*time.Minute)
		c.Invalidate("nobody")
		assert.Equal(t, 0, c.Len())
	})
}

package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLimiter_SixthCheckIsLimited(t *testing.T) {
	clk := newFakeClock()
	l := New(5, 60*time.Second).WithClock(clk.Now)
	key := Key("42", "setup")

	for i := 0; i < 5; i++ {
		limited, _ := l.IsRateLimited(key)
		require.False(t, limited, "request %d", i+1)
		l.AddRequest(key)
		clk.Advance(2 * time.Second)
	}

	limited, retry := l.IsRateLimited(key)
	assert.True(t, limited)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, 60*time.Second)
	// la más vieja entró hace 10s
	assert.Equal(t, 50*time.Second, retry)
}

func TestLimiter_WindowSlides(t *testing.T) {
	clk := newFakeClock()
	l := New(2, time.Minute).WithClock(clk.Now)

	ok, _ := l.TryAcquire("k")
	require.True(t, ok)
	clk.Advance(30 * time.Second)
	ok, _ = l.TryAcquire("k")
	require.True(t, ok)

	ok, retry := l.TryAcquire("k")
	require.False(t, ok)
	assert.Equal(t, 30*time.Second, retry)

	clk.Advance(30 * time.Second)
	ok, _ = l.TryAcquire("k")
	assert.True(t, ok, "first request left the window")
}

func TestLimiter_TryAcquireOnlyCountsAccepted(t *testing.T) {
	clk := newFakeClock()
	l := New(1, time.Minute).WithClock(clk.Now)

	ok, _ := l.TryAcquire("k")
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		ok, _ = l.TryAcquire("k")
		require.False(t, ok)
	}
	clk.Advance(time.Minute)
	ok, _ = l.TryAcquire("k")
	assert.True(t, ok, "rejected attempts must not extend the window")
}

func TestLimiter_KeysAreIndependentAndPruned(t *testing.T) {
	clk := newFakeClock()
	l := New(1, time.Minute).WithClock(clk.Now)

	ok, _ := l.TryAcquire(Key("1", "setup"))
	require.True(t, ok)
	ok, _ = l.TryAcquire(Key("2", "setup"))
	require.True(t, ok)
	ok, _ = l.TryAcquire(Key("1", "myupi"))
	require.True(t, ok)

	assert.Equal(t, 3, l.Prune())
	clk.Advance(2 * time.Minute)
	assert.Equal(t, 0, l.Prune())
}

func TestLimiter_Concurrent(t *testing.T) {
	l := New(50, time.Hour)
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.TryAcquire("shared"); ok {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, accepted)
}

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsUntilCancelled(t *testing.T) {
	s := New(nil)
	var n atomic.Int32
	s.Add(Job{Name: "tick", Every: 10 * time.Millisecond, Fn: func(context.Context) error {
		n.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()

	stopped := n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, n.Load(), "no runs after cancel")
	assert.Equal(t, int(stopped), s.Runs("tick"))
}

func TestScheduler_RunFirstAndTimeout(t *testing.T) {
	s := New(nil)
	deadlineSeen := make(chan time.Duration, 1)
	s.Add(Job{Name: "first", Every: time.Hour, Timeout: 50 * time.Millisecond, RunFirst: true, Fn: func(ctx context.Context) error {
		dl, ok := ctx.Deadline()
		assert.True(t, ok)
		deadlineSeen <- time.Until(dl)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	select {
	case left := <-deadlineSeen:
		assert.LessOrEqual(t, left, 50*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("RunFirst job did not run")
	}
}

func TestScheduler_ErrorsAndPanicsDoNotStopTheLoop(t *testing.T) {
	s := New(nil)
	var n atomic.Int32
	s.Add(Job{Name: "flaky", Every: 5 * time.Millisecond, Fn: func(context.Context) error {
		switch n.Add(1) {
		case 1:
			panic("boom")
		case 2:
			return errors.New("transient")
		}
		return nil
	}})
	s.Add(Job{Name: "ignored", Every: 0, Fn: func(context.Context) error { return nil }})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	require.Eventually(t, func() bool { return n.Load() >= 4 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()

	assert.Zero(t, s.Runs("ignored"))
}

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldowns_SetThenCheck(t *testing.T) {
	cd := NewCooldowns(100, time.Hour)

	cd.Set("u1", "setup")
	on, remaining := cd.Check("u1", "setup", 20*time.Second)

	assert.True(t, on)
	assert.InDelta(t, (20 * time.Second).Seconds(), remaining.Seconds(), 1)
}

func TestCooldowns_Expires(t *testing.T) {
	clk := newFakeClock()
	cd := NewCooldowns(100, time.Hour).WithClock(clk.Now)

	on, _ := cd.Check("u1", "setup", 20*time.Second)
	assert.False(t, on, "never used")

	cd.Set("u1", "setup")
	clk.Advance(15 * time.Second)
	on, remaining := cd.Check("u1", "setup", 20*time.Second)
	assert.True(t, on)
	assert.Equal(t, 5*time.Second, remaining)

	clk.Advance(5 * time.Second)
	on, remaining = cd.Check("u1", "setup", 20*time.Second)
	assert.False(t, on)
	assert.Zero(t, remaining)

	on, _ = cd.Check("u1", "voice_join", 20*time.Second)
	assert.False(t, on, "commands are tracked separately")
}

func TestCooldowns_Bounded(t *testing.T) {
	cd := NewCooldowns(3, time.Hour)
	for _, u := range []string{"a", "b", "c", "d", "e"} {
		cd.Set(u, "setup")
	}
	assert.Equal(t, 3, cd.Len())

	on, _ := cd.Check("a", "setup", time.Minute)
	assert.False(t, on, "oldest entry evicted")
	on, _ = cd.Check("e", "setup", time.Minute)
	assert.True(t, on)
}

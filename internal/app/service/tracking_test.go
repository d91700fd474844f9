package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

func TestTrackingStore(t *testing.T) {
	s := NewTrackingStore()
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	s.Add(domain.TempChannel{ChannelID: "b", OwnerUserID: "u1", GuildID: "g1", CreatedAt: t0.Add(time.Minute)})
	s.Add(domain.TempChannel{ChannelID: "a", OwnerUserID: "u1", GuildID: "g2", CreatedAt: t0})
	s.Add(domain.TempChannel{ChannelID: "c", OwnerUserID: "u2", GuildID: "g1", CreatedAt: t0.Add(2 * time.Minute)})

	snap := s.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, []string{snap[0].ChannelID, snap[1].ChannelID, snap[2].ChannelID})
	assert.Len(t, s.OwnedBy("u1", ""), 2)
	assert.Len(t, s.OwnedBy("u1", "g1"), 1)

	tc, ok := s.Remove("b")
	assert.True(t, ok)
	assert.Equal(t, "u1", tc.OwnerUserID)
	_, ok = s.Remove("b")
	assert.False(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestKeyedMutex_SerializesAndReleases(t *testing.T) {
	k := newKeyedMutex()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("room-1")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, k.size(), "entries are dropped once unused")
}

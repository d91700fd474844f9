package service

import (
	"sort"
	"sync"

	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

// TrackingStore: canales temporales que el bot cree que existen (channel id -> TempChannel).
type TrackingStore struct {
	mu sync.RWMutex
	m  map[string]domain.TempChannel
}

func NewTrackingStore() *TrackingStore {
	return &TrackingStore{m: map[string]domain.TempChannel{}}
}

func (t *TrackingStore) Add(tc domain.TempChannel) {
	t.mu.Lock()
	t.m[tc.ChannelID] = tc
	t.mu.Unlock()
}

func (t *TrackingStore) Remove(channelID string) (domain.TempChannel, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tc, ok := t.m[channelID]
	delete(t.m, channelID)
	return tc, ok
}

func (t *TrackingStore) Get(channelID string) (domain.TempChannel, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tc, ok := t.m[channelID]
	return tc, ok
}

// Snapshot ordenado por antigüedad; se puede iterar sin lock.
func (t *TrackingStore) Snapshot() []domain.TempChannel {
	t.mu.RLock()
	out := make([]domain.TempChannel, 0, len(t.m))
	for _, tc := range t.m {
		out = append(out, tc)
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (t *TrackingStore) OwnedBy(userID, guildID string) []domain.TempChannel {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []domain.TempChannel
	for _, tc := range t.m {
		if tc.OwnerUserID == userID && (guildID == "" || tc.GuildID == guildID) {
			out = append(out, tc)
		}
	}
	return out
}

func (t *TrackingStore) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

// keyedMutex serializa por key; las entradas se liberan cuando nadie las usa.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex { return &keyedMutex{locks: map[string]*refMutex{}} }

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

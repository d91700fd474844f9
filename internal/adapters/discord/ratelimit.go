package discord

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// clickGuard: un click por usuario por ventana (botones de confirmación).
// La entrada vence sola con el TTL del LRU.
type clickGuard struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

func newClickGuard(window time.Duration) *clickGuard {
	return &clickGuard{seen: expirable.NewLRU[string, struct{}](10_000, nil, window)}
}

func (g *clickGuard) Allow(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen.Peek(userID); ok {
		return false
	}
	g.seen.Add(userID, struct{}{})
	return true
}

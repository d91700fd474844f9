package ratelimit

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const defaultCooldownEntries = 50_000

// Cooldowns guarda el último uso por (user, command). Acotado por tamaño y TTL,
// así el mapa no crece sin límite durante la vida del bot.
type Cooldowns struct {
	last *expirable.LRU[string, time.Time]
	now  func() time.Time
}

// NewCooldowns: maxCooldown debe ser >= al cooldown más largo que se vaya a chequear.
func NewCooldowns(size int, maxCooldown time.Duration) *Cooldowns {
	if size <= 0 {
		size = defaultCooldownEntries
	}
	return &Cooldowns{
		last: expirable.NewLRU[string, time.Time](size, nil, maxCooldown),
		now:  time.Now,
	}
}

func (c *Cooldowns) WithClock(now func() time.Time) *Cooldowns {
	c.now = now
	return c
}

// Check devuelve si sigue en cooldown y cuánto falta.
func (c *Cooldowns) Check(userID, command string, d time.Duration) (bool, time.Duration) {
	last, ok := c.last.Get(Key(userID, command))
	if !ok {
		return false, 0
	}
	elapsed := c.now().Sub(last)
	if elapsed < d {
		return true, d - elapsed
	}
	return false, 0
}

func (c *Cooldowns) Set(userID, command string) {
	c.last.Add(Key(userID, command), c.now())
}

func (c *Cooldowns) Len() int { return c.last.Len() }

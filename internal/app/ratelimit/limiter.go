// Package ratelimit tiene el limitador de ventana deslizante y los cooldowns por comando.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter: como mucho max requests por key dentro de window.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

func New(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	return &Limiter{
		max:    maxRequests,
		window: window,
		hits:   map[string][]time.Time{},
		now:    time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

func Key(userID, command string) string { return userID + ":" + command }

// IsRateLimited sólo mira; no registra el request.
func (l *Limiter) IsRateLimited(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.check(key, l.now())
}

// AddRequest registra un request aceptado.
func (l *Limiter) AddRequest(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hits[key] = append(l.hits[key], l.now())
}

// TryAcquire chequea y registra en un solo paso: sólo cuentan los aceptados.
func (l *Limiter) TryAcquire(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if limited, retry := l.check(key, now); limited {
		return false, retry
	}
	l.hits[key] = append(l.hits[key], now)
	return true, 0
}

// check asume l.mu tomado. Poda la ventana en el lugar.
func (l *Limiter) check(key string, now time.Time) (bool, time.Duration) {
	live := l.prune(key, now)
	if len(live) < l.max {
		return false, 0
	}
	// la más vieja es la primera (append en orden)
	retry := l.window - now.Sub(live[0])
	if retry <= 0 {
		retry = time.Nanosecond
	}
	return true, retry
}

func (l *Limiter) prune(key string, now time.Time) []time.Time {
	ts := l.hits[key]
	i := 0
	for i < len(ts) && now.Sub(ts[i]) >= l.window {
		i++
	}
	if i == len(ts) {
		delete(l.hits, key)
		return nil
	}
	if i > 0 {
		ts = append(ts[:0:0], ts[i:]...)
		l.hits[key] = ts
	}
	return ts
}

// Prune borra las keys sin requests vivos. Devuelve cuántas quedan.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for k := range l.hits {
		l.prune(k, now)
	}
	return len(l.hits)
}

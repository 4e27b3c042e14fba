package registry

import (
	"sync"
	"time"
)

// TokenBucket is a lazily-refilling rate limiter: capacity tokens, refilled
// continuously at refillRate tokens/second, computed from elapsed wall time
// on each admission check rather than by a background goroutine.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	refillRate float64
	level      float64
	lastRefill time.Time
}

// NewTokenBucket constructs a bucket starting at full capacity.
func NewTokenBucket(capacity, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		level:      capacity,
		lastRefill: time.Now(),
	}
}

func (b *TokenBucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.level += elapsed * b.refillRate
	if b.level > b.capacity {
		b.level = b.capacity
	}
	b.lastRefill = now
}

// TryConsume refills lazily then consumes exactly one token if available.
func (b *TokenBucket) TryConsume(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(now)
	if b.level < 1 {
		return false
	}
	b.level--
	return true
}

// Level returns the current token level, refilled as of now.
func (b *TokenBucket) Level(now time.Time) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(now)
	return b.level
}

// Reconfigure changes capacity/refillRate at runtime. The current level is
// preserved, increased by the capacity delta if capacity grew, then clamped
// to the new capacity: a growing bucket keeps every banked token, a
// shrinking bucket drops the tokens above its new capacity.
func (b *TokenBucket) Reconfigure(newCapacity, newRefillRate float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if delta := newCapacity - b.capacity; delta > 0 {
		b.level += delta
	}
	b.capacity = newCapacity
	b.refillRate = newRefillRate
	if b.level > b.capacity {
		b.level = b.capacity
	}
	if b.level < 0 {
		b.level = 0
	}
}

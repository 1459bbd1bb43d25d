package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type memoryEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryLimiter is the single-process fallback. Not shared across instances.
type MemoryLimiter struct {
	clock clockwork.Clock

	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemory(clock clockwork.Clock) *MemoryLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MemoryLimiter{clock: clock, entries: make(map[string]memoryEntry)}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !e.expiresAt.After(now) {
		e = memoryEntry{count: 0, expiresAt: now.Add(window)}
	}
	e.count++
	l.entries[key] = e

	remaining := limit - e.count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   e.count <= limit,
		Remaining: remaining,
		ResetIn:   e.expiresAt.Sub(now),
	}, nil
}

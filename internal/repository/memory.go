package repository

import (
	"context"
	"sync"
	"time"
)

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryLimiter is the in-process fallback used when Redis is absent or down.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		entries: make(map[string]*rateLimitEntry),
		now:     time.Now,
	}
}

func (r *MemoryLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &rateLimitEntry{expiresAt: now.Add(window)}
		r.entries[key] = entry
	}
	entry.count++

	return entry.count <= limit, nil
}

// Sweep drops expired windows.
func (r *MemoryLimiter) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for key, entry := range r.entries {
		if !now.Before(entry.expiresAt) {
			delete(r.entries, key)
			removed++
		}
	}
	return removed
}

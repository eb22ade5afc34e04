package api

import (
	"testing"
	"time"

	"buddyboard/internal/config"

	"github.com/stretchr/testify/assert"
)

func countLimiters(l *rateLimiter) int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestRateLimiterSweepDropsIdleClients(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	l := newRateLimiter(config.APIRateLimitConfig{RPS: 1, Burst: 1})
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.Equal(t, 2, countLimiters(l))

	now = now.Add(20 * time.Minute)
	l.allow("10.0.0.2")

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, l.sweep(loginLimiterIdle))
	assert.Equal(t, 1, countLimiters(l))

	_, stillThere := l.limiters.Load("10.0.0.2")
	assert.True(t, stillThere, "recently seen client must be kept")

	now = now.Add(loginLimiterIdle + time.Second)
	assert.Equal(t, 1, l.sweep(loginLimiterIdle))
	assert.Equal(t, 0, countLimiters(l))
}

func TestRateLimiterDisabled(t *testing.T) {
	l := newRateLimiter(config.APIRateLimitConfig{})
	for i := 0; i < 10; i++ {
		assert.True(t, l.allow("10.0.0.1"))
	}
	assert.Equal(t, 0, countLimiters(l))
}

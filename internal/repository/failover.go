package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"buddyboard/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverLimiter uses primary until it errors, then serves from fallback and
// retries primary once per recoveryInterval.
type FailoverLimiter struct {
	primary  domain.SubmitLimiter
	fallback domain.SubmitLimiter
	logger   *zerolog.Logger
	isDown   atomic.Bool
	now      func() time.Time

	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverLimiter(primary, fallback domain.SubmitLimiter, logger *zerolog.Logger) *FailoverLimiter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverLimiter) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary limiter failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
}

func (r *FailoverLimiter) shouldRetryPrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Sub(r.lastCheck) > recoveryInterval
}

func (r *FailoverLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() || r.shouldRetryPrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			if r.isDown.Swap(false) {
				r.logger.Info().Msg("Primary limiter recovered")
			}
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

// Degraded reports whether requests are currently served by the fallback.
func (r *FailoverLimiter) Degraded() bool {
	return r.isDown.Load()
}

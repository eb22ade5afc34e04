package api

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"buddyboard/internal/config"

	"golang.org/x/time/rate"
)

const (
	clientKeyUnknown = "unknown"

	loginLimiterIdle = 30 * time.Minute
	loginSweepEvery  = 5 * time.Minute
)

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// rateLimiter hands out one token bucket per client address.
type rateLimiter struct {
	limiters sync.Map
	cfg      config.APIRateLimitConfig
	now      func() time.Time
}

func newRateLimiter(cfg config.APIRateLimitConfig) *rateLimiter {
	return &rateLimiter{cfg: cfg, now: time.Now}
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	now := l.now().UnixNano()
	if v, ok := l.limiters.Load(key); ok {
		if e, ok := v.(*limiterEntry); ok {
			e.lastSeen.Store(now)
			return e.lim
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	e := &limiterEntry{lim: rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)}
	e.lastSeen.Store(now)
	actual, loaded := l.limiters.LoadOrStore(key, e)
	if loaded {
		if actualEntry, ok := actual.(*limiterEntry); ok {
			actualEntry.lastSeen.Store(now)
			return actualEntry.lim
		}
	}
	return e.lim
}

func (l *rateLimiter) allow(key string) bool {
	if l.cfg.RPS <= 0 {
		return true
	}
	return l.getLimiter(key).Allow()
}

// sweep drops buckets not used for idle and returns how many were removed.
// An idle bucket has refilled, so forgetting it changes nothing for the client.
func (l *rateLimiter) sweep(idle time.Duration) int {
	cutoff := l.now().Add(-idle).UnixNano()
	removed := 0
	l.limiters.Range(func(key, v any) bool {
		if e, ok := v.(*limiterEntry); ok && e.lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// SweepLoginLimiters forgets idle per-client login buckets until ctx is done.
func (s *HTTPServer) SweepLoginLimiters(ctx context.Context) {
	ticker := time.NewTicker(loginSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.login.sweep(loginLimiterIdle); n > 0 {
				s.logger.Debug().Int("expired", n).Msg("login limiter swept")
			}
		}
	}
}

// limitLogin throttles POST /api/auth per client address.
func (s *HTTPServer) limitLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.login.allow(clientKey(r)) {
			writeError(w, r, http.StatusTooManyRequests, "Too many login attempts")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitSubmit caps public form submissions per client address in a fixed
// window. Limiter faults let the request through.
func (s *HTTPServer) limitSubmit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Submit == nil || s.cfg.Submit.Limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		window := time.Duration(s.cfg.Submit.Window) * time.Second
		allowed, err := s.deps.Submit.CheckRateLimit(r.Context(), clientKey(r), s.cfg.Submit.Limit, window)
		if err != nil {
			s.logger.Warn().Err(err).Msg("submit limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", formatSeconds(window))
			writeError(w, r, http.StatusTooManyRequests, "Too many submissions, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return clientKeyUnknown
}

func formatSeconds(d time.Duration) string {
	return strconv.Itoa(int(d / time.Second))
}

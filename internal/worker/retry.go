package worker

import (
	"math"
	"math/rand/v2"
	"time"
)

// RetryPolicy controls how often a notification channel is retried.
// Jitter spreads each delay by up to ±Jitter of its value; 0 keeps delays exact.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        float64

	rand func() float64
}

// DefaultRetryPolicy suits Telegram and Sheets rate limits: 5 attempts over roughly half a minute.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
		Jitter:        0.2,
	}
}

// withDefaults fills zero fields from DefaultRetryPolicy. Jitter stays as given.
func (r RetryPolicy) withDefaults() RetryPolicy {
	def := DefaultRetryPolicy()
	if r.MaxRetries <= 0 {
		r.MaxRetries = def.MaxRetries
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = def.InitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = def.MaxDelay
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = def.BackoffFactor
	}
	if r.Jitter < 0 {
		r.Jitter = 0
	}
	if r.Jitter > 1 {
		r.Jitter = 1
	}
	return r
}

// NextDelay returns the wait before attempt+1 (attempt is 1-based), capped at MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	if r.Jitter > 0 {
		random := r.rand
		if random == nil {
			random = rand.Float64
		}
		delay *= 1 + r.Jitter*(2*random()-1)
	}

	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}

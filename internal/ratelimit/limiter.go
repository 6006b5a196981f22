// Package ratelimit provides per-identity, per-operation admission control
// backed by fixed-window counters in the persistent store.
package ratelimit

import (
	"context"
	"log"
	"math"
	"time"
)

// Operation names for rate-limited endpoints
const (
	OpSearch             = "search"
	OpProposalGeneration = "proposal_generation"
)

// DefaultWindow is the window length used when none is configured
const DefaultWindow = time.Minute

// CounterStore persists window counters. Increment must be atomic: it either
// rolls an elapsed window to count=1 or bumps the current count, never both.
type CounterStore interface {
	Increment(ctx context.Context, identity, operation string, window time.Duration, now time.Time) (count int, windowStart time.Time, err error)
	Peek(ctx context.Context, identity, operation string, window time.Duration, now time.Time) (count int, windowStart time.Time, err error)
}

// Result describes the outcome of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Current    int
	ResetAt    time.Time
	RetryAfter time.Duration // zero when allowed
}

// Remaining returns the number of requests left in the window
func (r *Result) Remaining() int {
	remaining := r.Limit - r.Current
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Limiter gates expensive operations per identity. Counters for distinct
// operations are independent and never decrement within a window.
type Limiter struct {
	store    CounterStore
	failOpen bool
	now      func() time.Time
}

// New creates a limiter. When failOpen is true a store failure admits the
// request with a logged warning; when false it denies. This is an explicit
// policy choice: availability of search and proposal generation is preferred
// over strict quota enforcement by default.
func New(store CounterStore, failOpen bool) *Limiter {
	return &Limiter{
		store:    store,
		failOpen: failOpen,
		now:      time.Now,
	}
}

// Check records one request for (identity, operation) and reports whether it
// is within the limit. ResetAt is populated regardless of outcome so callers
// can emit X-RateLimit-* headers.
func (l *Limiter) Check(ctx context.Context, identity, operation string, limit int, window time.Duration) *Result {
	if window <= 0 {
		window = DefaultWindow
	}
	now := l.now()

	count, windowStart, err := l.store.Increment(ctx, identity, operation, window, now)
	if err != nil {
		log.Printf("[ratelimit] store unavailable (fail_open=%v): %v", l.failOpen, err)
		return &Result{
			Allowed: l.failOpen,
			Limit:   limit,
			ResetAt: now.Add(window),
		}
	}

	resetAt := windowStart.Add(window)
	result := &Result{
		Allowed: count <= limit,
		Limit:   limit,
		Current: count,
		ResetAt: resetAt,
	}

	if !result.Allowed {
		secs := math.Ceil(resetAt.Sub(now).Seconds())
		if secs < 1 {
			secs = 1
		}
		result.RetryAfter = time.Duration(secs) * time.Second
	}

	return result
}

// Status reports the current window state without consuming a request
func (l *Limiter) Status(ctx context.Context, identity, operation string, limit int, window time.Duration) (*Result, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	now := l.now()

	count, windowStart, err := l.store.Peek(ctx, identity, operation, window, now)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed: count < limit,
		Limit:   limit,
		Current: count,
		ResetAt: windowStart.Add(window),
	}, nil
}

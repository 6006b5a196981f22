package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/grantscope/backend/internal/database"
)

// RateLimitRepository persists fixed-window rate limit counters.
// All mutations go through a single atomic upsert so concurrent requests for
// the same (identity, operation) cannot both observe a missing row or both
// increment from the same stale count.
type RateLimitRepository struct {
	db *database.DB
}

// NewRateLimitRepository creates a new rate limit repository
func NewRateLimitRepository(db *database.DB) *RateLimitRepository {
	return &RateLimitRepository{db: db}
}

// Increment bumps the counter for (identity, operation), rolling the window
// when it has elapsed. Returns the count and window start after the update.
func (r *RateLimitRepository) Increment(ctx context.Context, identity, operation string, window time.Duration, now time.Time) (int, time.Time, error) {
	nowUnix := now.Unix()
	expiredBefore := nowUnix - int64(window.Seconds())

	query := `
		INSERT INTO rate_limit_counters (identity, operation, count, window_start)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (identity, operation) DO UPDATE SET
			count = CASE
				WHEN rate_limit_counters.window_start <= $4 THEN 1
				ELSE rate_limit_counters.count + 1
			END,
			window_start = CASE
				WHEN rate_limit_counters.window_start <= $4 THEN $3
				ELSE rate_limit_counters.window_start
			END
		RETURNING count, window_start
	`

	var count int
	var windowStart int64
	err := r.db.QueryRow(ctx, query, identity, operation, nowUnix, expiredBefore).
		Scan(&count, &windowStart)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	return count, time.Unix(windowStart, 0), nil
}

// Peek returns the current count and window start without incrementing.
// A missing or expired row reads as a fresh window with count zero.
func (r *RateLimitRepository) Peek(ctx context.Context, identity, operation string, window time.Duration, now time.Time) (int, time.Time, error) {
	query := `
		SELECT count, window_start
		FROM rate_limit_counters
		WHERE identity = $1 AND operation = $2
	`

	var count int
	var windowStart int64
	err := r.db.QueryRow(ctx, query, identity, operation).Scan(&count, &windowStart)
	if errors.Is(err, pgx.ErrNoRows) {
		// No row yet means nothing consumed in this window
		return 0, now, nil
	}
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("failed to read rate limit counter: %w", err)
	}

	start := time.Unix(windowStart, 0)
	if now.Sub(start) >= window {
		return 0, now, nil
	}
	return count, start, nil
}

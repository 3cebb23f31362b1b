package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
)

// LoadCounter reads the current sliding-window counter for (identity,
// scope), or nil if none exists yet.
func (s *Store) LoadCounter(ctx context.Context, identity, scope string) (*QuotaCounter, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT identity, scope, request_count, window_start
		FROM quota_counters WHERE identity = $1 AND scope = $2`, identity, scope)
	var c QuotaCounter
	if err := row.Scan(&c.Identity, &c.Scope, &c.RequestCount, &c.WindowStart); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load quota counter")
	}
	return &c, nil
}

// BumpCounter increments the counter for (identity, scope), starting a new
// window if none exists or the current one has expired, and returns the
// post-increment state. This is the sole write path for quota counters;
// callers decide whether to call it based on their own allow/deny check
// (spec Open Question (b): the increment happens after the allow check,
// which is racy under concurrent requests from the same identity — the
// limiter is approximate under contention, by design).
func (s *Store) BumpCounter(ctx context.Context, identity, scope string, window time.Duration) (QuotaCounter, error) {
	now := time.Now()
	windowSeconds := window.Seconds()
	var c QuotaCounter
	err := s.pool.QueryRow(ctx, `
		INSERT INTO quota_counters (identity, scope, request_count, window_start)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (identity, scope) DO UPDATE SET
			request_count = CASE
				WHEN quota_counters.window_start + ($4 * interval '1 second') <= $3 THEN 1
				ELSE quota_counters.request_count + 1
			END,
			window_start = CASE
				WHEN quota_counters.window_start + ($4 * interval '1 second') <= $3 THEN $3
				ELSE quota_counters.window_start
			END
		RETURNING identity, scope, request_count, window_start`,
		identity, scope, now, windowSeconds).Scan(&c.Identity, &c.Scope, &c.RequestCount, &c.WindowStart)
	if err != nil {
		return QuotaCounter{}, errors.Wrap(err, "bump quota counter")
	}
	return c, nil
}

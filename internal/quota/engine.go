// Package quota implements the Quota/Throttle Engine (spec C12): two
// independent sliding fixed-width window mechanisms layered over
// internal/store's durable counters, plus an in-memory positive-only
// entitlement cache. Grounded on the teacher's resource_manager.go
// singleton-with-mutex shape, generalized from resource accounting to
// request accounting.
package quota

import (
	"context"
	"sync"
	"time"

	"github.com/clipfinder/clipfinder/internal/adapters"
	"github.com/clipfinder/clipfinder/internal/store"
)

const aiQuotaScope = "ai_quota"

// Engine evaluates both the generic per-route throttle and the
// subscription-gated AI quota.
type Engine struct {
	Store       *store.Store
	Entitlement adapters.EntitlementChecker

	AIQuotaFreeLimit    int
	AIQuotaWindow       time.Duration
	EntitlementCacheTTL time.Duration

	mu         sync.Mutex
	entitled   map[string]time.Time // userID -> cache expiry, positive results only
}

func New(st *store.Store, entitlement adapters.EntitlementChecker, freeLimit int, window, cacheTTL time.Duration) *Engine {
	return &Engine{
		Store:               st,
		Entitlement:         entitlement,
		AIQuotaFreeLimit:    freeLimit,
		AIQuotaWindow:       window,
		EntitlementCacheTTL: cacheTTL,
		entitled:            make(map[string]time.Time),
	}
}

// Throttle implements the generic per-route mechanism (spec §4.12): a
// sliding fixed-width window per identity (user id if supplied, else
// client IP), checked then incremented. This is the check-then-increment
// the design notes' Open Question (b) flags as racy under concurrent
// requests from the same identity — acceptable imprecision, not a bug.
func (e *Engine) Throttle(ctx context.Context, identity, scope string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error) {
	counter, err := e.Store.LoadCounter(ctx, identity, scope)
	if err != nil {
		return false, 0, err
	}
	if counter != nil {
		elapsed := time.Since(counter.WindowStart)
		if elapsed < window && counter.RequestCount >= limit {
			return false, window - elapsed, nil
		}
	}
	if _, err := e.Store.BumpCounter(ctx, identity, scope, window); err != nil {
		return false, 0, err
	}
	return true, 0, nil
}

// AIQuotaResult reports the outcome of an AI-quota check plus the
// information the HTTP surface needs for the X-Paywall-* headers.
type AIQuotaResult struct {
	Allowed     bool
	Entitled    bool
	RetryAfter  time.Duration
	RequestsUsed int
}

// CheckAIQuota implements spec §4.12's AI quota: unlimited for an
// entitled subscriber, otherwise AIQuotaFreeLimit requests per
// AIQuotaWindow. Entitlement-provider errors fail open (request allowed)
// without consuming quota or being cached.
func (e *Engine) CheckAIQuota(ctx context.Context, userID string) (AIQuotaResult, error) {
	active, entitlementErr := e.checkEntitlement(ctx, userID)
	if entitlementErr != nil {
		return AIQuotaResult{Allowed: true}, nil
	}
	if active {
		return AIQuotaResult{Allowed: true, Entitled: true}, nil
	}
	allowed, retryAfter, err := e.Throttle(ctx, userID, aiQuotaScope, e.AIQuotaFreeLimit, e.AIQuotaWindow)
	if err != nil {
		return AIQuotaResult{}, err
	}
	used := 0
	if counter, cErr := e.Store.LoadCounter(ctx, userID, aiQuotaScope); cErr == nil && counter != nil {
		used = counter.RequestCount
	}
	return AIQuotaResult{Allowed: allowed, RetryAfter: retryAfter, RequestsUsed: used}, nil
}

// checkEntitlement consults the 5-minute positive-only cache before
// calling the provider; inactive results are never cached so a newly
// purchased subscription takes effect on the very next request.
func (e *Engine) checkEntitlement(ctx context.Context, userID string) (bool, error) {
	e.mu.Lock()
	if expiry, ok := e.entitled[userID]; ok && time.Now().Before(expiry) {
		e.mu.Unlock()
		return true, nil
	}
	e.mu.Unlock()

	active, err := e.Entitlement.HasActiveSubscription(ctx, userID)
	if err != nil {
		return false, err
	}
	if active {
		e.mu.Lock()
		e.entitled[userID] = time.Now().Add(e.EntitlementCacheTTL)
		e.mu.Unlock()
	}
	return active, nil
}

package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/clipfinder/clipfinder/internal/apperr"
)

const throttleScope = "route"

type contextKey string

const (
	analyzeRequestCtxKey contextKey = "analyzeRequest"
	bodyUserIDCtxKey     contextKey = "bodyUserID"
)

// identity resolves the caller's quota/throttle identity: a body-decoded
// userId (spec §6's analyzeRequest.userId, threaded in by withAnalyzeBody)
// takes precedence over the X-User-Id header, which in turn beats falling
// back to the client IP.
func identity(r *http.Request) (userID, fallbackIP string) {
	if v, ok := r.Context().Value(bodyUserIDCtxKey).(string); ok && v != "" {
		userID = v
	} else {
		userID = r.Header.Get("X-User-Id")
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return userID, host
}

// withAnalyzeBody decodes and validates the shared /analyze body once, up
// front, so both the quota middleware and the handler see the same parsed
// request — and so analyzeRequest.UserID (spec §6, §4.12) can establish
// identity before withThrottle/withAIQuota run.
func withAnalyzeBody(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			next(w, r)
			return
		}
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := req.validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid analysis request")
			return
		}

		ctx := context.WithValue(r.Context(), analyzeRequestCtxKey, req)
		if req.UserID != "" {
			ctx = context.WithValue(ctx, bodyUserIDCtxKey, req.UserID)
		}
		next(w, r.WithContext(ctx))
	}
}

// withThrottle implements the generic per-route throttle (spec §4.12):
// identity is the user id if supplied, else the client IP.
func (s *Server) withThrottle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ip := identity(r)
		id, limit := ip, s.ThrottleIPLimit
		if userID != "" {
			id, limit = userID, s.ThrottleUserLimit
		}

		allowed, retryAfter, err := s.Quota.Throttle(r.Context(), id, throttleScope, limit, time.Duration(s.ThrottleWindowSec)*time.Second)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "throttle check failed")
			return
		}
		if !allowed {
			writeRetryAfter(w, retryAfter, apperr.ErrRateLimited)
			return
		}
		next(w, r)
	}
}

// withAIQuota implements the subscription-gated AI quota (spec §4.12).
// Identity must be a user id; callers without one all share the single
// "anonymous" identity and its free-tier allowance (the AI quota is not
// IP-scoped).
func (s *Server) withAIQuota(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := identity(r)
		if userID == "" {
			userID = "anonymous"
		}

		result, err := s.Quota.CheckAIQuota(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "quota check failed")
			return
		}

		w.Header().Set("X-Paywall-Has-Subscription", strconvBool(result.Entitled))
		if result.Entitled {
			w.Header().Set("X-Paywall-Requests-Limit", "unlimited")
		} else {
			w.Header().Set("X-Paywall-Requests-Used", strconv.Itoa(result.RequestsUsed))
			w.Header().Set("X-Paywall-Requests-Limit", strconv.Itoa(s.aiQuotaFreeLimit()))
		}

		if !result.Allowed {
			writeRetryAfter(w, result.RetryAfter, apperr.ErrQuotaExceeded)
			return
		}
		next(w, r)
	}
}

func writeRetryAfter(w http.ResponseWriter, retryAfter time.Duration, cause error) {
	seconds := int64(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	status := http.StatusTooManyRequests
	if cause == apperr.ErrQuotaExceeded {
		status = http.StatusForbidden
	}
	w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
	writeJSON(w, status, map[string]any{
		"error":                cause.Error(),
		"retryAfterSeconds":    seconds,
		"retryAfterFormatted":  time.Duration(seconds * int64(time.Second)).String(),
	})
}

func (s *Server) aiQuotaFreeLimit() int {
	return s.Quota.AIQuotaFreeLimit
}

func strconvBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

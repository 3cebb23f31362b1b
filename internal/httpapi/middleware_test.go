package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clipfinder/clipfinder/internal/apperr"
)

func TestIdentityPrefersUserHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-User-Id", "user-42")
	r.RemoteAddr = "203.0.113.5:1234"
	userID, ip := identity(r)
	if userID != "user-42" {
		t.Errorf("userID = %q, want %q", userID, "user-42")
	}
	if ip != "203.0.113.5" {
		t.Errorf("ip = %q, want %q", ip, "203.0.113.5")
	}
}

func TestIdentityPrefersBodyUserIDOverHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-User-Id", "header-user")
	r = r.WithContext(context.WithValue(r.Context(), bodyUserIDCtxKey, "body-user"))
	userID, _ := identity(r)
	if userID != "body-user" {
		t.Errorf("userID = %q, want %q (body userId should win)", userID, "body-user")
	}
}

func TestWithAnalyzeBodyThreadsUserIDIntoIdentity(t *testing.T) {
	body := `{"sentence":"She broke the ice.","targetWord":"ice","targetLanguage":"es","nativeLanguage":"en","userId":"user-77"}`
	r := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body))
	r.Header.Set("X-User-Id", "header-user")
	w := httptest.NewRecorder()

	var seenUserID string
	handler := withAnalyzeBody(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, _ = identity(r)
	})
	handler(w, r)

	if seenUserID != "user-77" {
		t.Errorf("identity inside handler = %q, want body userId %q", seenUserID, "user-77")
	}
}

func TestWithAnalyzeBodyRejectsInvalidRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"sentence":""}`))
	w := httptest.NewRecorder()

	handler := withAnalyzeBody(func(w http.ResponseWriter, r *http.Request) {
		t.Error("next should not run for an invalid body")
	})
	handler(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestIdentityFallsBackToRemoteAddrWithoutPort(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "not-a-host-port"
	_, ip := identity(r)
	if ip != "not-a-host-port" {
		t.Errorf("ip = %q, want raw RemoteAddr fallback", ip)
	}
}

func TestWriteRetryAfterRateLimited(t *testing.T) {
	w := httptest.NewRecorder()
	writeRetryAfter(w, 30*time.Second, apperr.ErrRateLimited)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") != "30" {
		t.Errorf("Retry-After = %q, want %q", w.Header().Get("Retry-After"), "30")
	}
}

func TestWriteRetryAfterQuotaExceeded(t *testing.T) {
	w := httptest.NewRecorder()
	writeRetryAfter(w, 0, apperr.ErrQuotaExceeded)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["retryAfterSeconds"].(float64) != 1 {
		t.Errorf("retryAfterSeconds = %v, want 1 (floored minimum)", body["retryAfterSeconds"])
	}
}

func TestStrconvBool(t *testing.T) {
	if strconvBool(true) != "true" || strconvBool(false) != "false" {
		t.Error("strconvBool did not round-trip true/false")
	}
}

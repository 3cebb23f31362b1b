// Package httpapi is the HTTP Surface (spec C13): request validation,
// JSON and Server-Sent-Events response shaping, and quota header
// emission. Grounded on the teacher's main.go writeJSON helper and its
// bare http.HandleFunc routing style.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/clipfinder/clipfinder/internal/adapters"
	"github.com/clipfinder/clipfinder/internal/analysis"
	"github.com/clipfinder/clipfinder/internal/quota"
	"github.com/clipfinder/clipfinder/internal/store"
	"github.com/clipfinder/clipfinder/internal/stream"
)

// Server holds every collaborator the HTTP surface dispatches to.
type Server struct {
	Store    *store.Store
	Registry *stream.Registry
	Analysis *analysis.Cache
	Quota    *quota.Engine
	AI       adapters.AIStreamer

	ThrottleUserLimit int
	ThrottleIPLimit   int
	ThrottleWindowSec int64
}

// Routes registers every endpoint spec §6 names onto mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/search", s.withThrottle(s.handleSearch))
	mux.HandleFunc("/analyze", withAnalyzeBody(s.withThrottle(s.withAIQuota(s.handleAnalyze))))
	mux.HandleFunc("/analyze/stream", withAnalyzeBody(s.withThrottle(s.withAIQuota(s.handleAnalyzeStream))))
	mux.HandleFunc("/examples/", s.handleExamples)
	mux.HandleFunc("/word/", s.handleWord)
	mux.HandleFunc("/words", s.handleWords)
	mux.HandleFunc("/stats", s.handleStats)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "httpapi: write json error: %v\n", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

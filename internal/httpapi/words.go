package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/clipfinder/clipfinder/internal/apperr"
)

// handleExamples implements GET /examples/:word (spec §6): list of
// segment references or 404.
func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimPrefix(r.URL.Path, "/examples/")
	if word == "" {
		writeError(w, http.StatusBadRequest, "missing word")
		return
	}
	entry, err := s.Store.FindByWord(r.Context(), strings.ToLower(word))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, apperr.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry.Examples)
}

// handleWord implements GET /word/:word (spec §6).
func (s *Server) handleWord(w http.ResponseWriter, r *http.Request) {
	word := strings.TrimPrefix(r.URL.Path, "/word/")
	if word == "" {
		writeError(w, http.StatusBadRequest, "missing word")
		return
	}
	entry, err := s.Store.FindByWord(r.Context(), strings.ToLower(word))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, apperr.ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"word":     entry.Word,
		"examples": entry.Examples,
		"count":    len(entry.Examples),
	})
}

// handleWords implements GET /words?limit&offset (spec §6).
func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
	words, err := s.Store.ListWords(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"words": words, "limit": limit, "offset": offset})
}

// handleStats implements GET /stats (spec §6).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.WordStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}

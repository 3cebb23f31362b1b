package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/clipfinder/clipfinder/internal/apperr"
	"github.com/clipfinder/clipfinder/internal/canon"
	"github.com/clipfinder/clipfinder/internal/fingerprint"
	"github.com/clipfinder/clipfinder/internal/store"
)

// handleSearch implements POST /search (spec §6): canonicalize the query,
// fingerprint it, and either return a cached completed Segment or the
// current/newly created Job's status.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := canon.Canonicalize(req.Query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query")
		return
	}
	fp := fingerprint.Search(q.Canonical).String()
	ctx := r.Context()

	if seg, err := s.Store.FindSegmentByFingerprint(ctx, fp); err == nil && seg != nil {
		writeSegmentResponse(w, http.StatusOK, fp, req.Query, seg)
		return
	}

	job, err := s.Store.FindJobByFingerprint(ctx, fp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if job == nil {
		job, err = s.Store.CreateJob(ctx, fp, store.JobInit{
			Fingerprint:   fp,
			OriginalQuery: req.Query,
			Canonical:     q.Canonical,
			Kind:          store.QueryKind(q.Kind),
		})
		if err != nil && !errors.Is(err, apperr.ErrDuplicateKey) {
			writeError(w, http.StatusInternalServerError, "could not create job")
			return
		}
		if errors.Is(err, apperr.ErrDuplicateKey) {
			job, err = s.Store.FindJobByFingerprint(ctx, fp)
			if err != nil || job == nil {
				writeError(w, http.StatusInternalServerError, "lookup failed")
				return
			}
		}
	}

	writeJobResponse(w, req.Query, job)
}

func writeSegmentResponse(w http.ResponseWriter, status int, fp, query string, seg *store.Segment) {
	writeJSON(w, status, map[string]any{
		"status":    "completed",
		"jobId":     fp,
		"query":     query,
		"videoId":   seg.SourceVideoID,
		"videoUrl":  "https://www.youtube.com/watch?v=" + seg.SourceVideoID,
		"startTime": seg.StartTime,
		"endTime":   seg.EndTime,
		"caption":   seg.CaptionText,
		"captions":  seg.Captions,
	})
}

func writeJobResponse(w http.ResponseWriter, query string, job *store.Job) {
	if job.Status == store.JobFailed {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "failed",
			"jobId":  job.ID,
			"query":  query,
			"error":  job.Error,
		})
		return
	}
	if job.Status == store.JobCompleted && job.Result != nil {
		writeSegmentResponse(w, http.StatusOK, job.Fingerprint, query, job.Result)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         string(job.Status),
		"jobId":          job.ID,
		"query":          query,
		"message":        "job in progress",
		"currentVideoId": job.CurrentVideoID,
	})
}

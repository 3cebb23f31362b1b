package httpapi

import (
	"net/http"

	"github.com/clipfinder/clipfinder/internal/analysis"
	"github.com/clipfinder/clipfinder/internal/fingerprint"
	"github.com/clipfinder/clipfinder/internal/store"
	"github.com/clipfinder/clipfinder/internal/stream"
)

// handleAnalyze implements POST /analyze (spec §6): non-streaming
// analysis. A cache hit returns immediately; a miss drives the stream
// registry synchronously by subscribing a buffering collector and waiting
// for its terminal frame.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	fp := analysisFingerprint(req).String()
	ctx := r.Context()

	if record, err := s.Store.FindAnalysisByFingerprint(ctx, fp); err == nil && record != nil {
		accessCount, err := s.Store.IncrementAnalysisAccess(ctx, fp)
		if err != nil {
			accessCount = record.AccessCount
		}
		writeJSON(w, http.StatusOK, analysisResponse(record, true, accessCount))
		return
	}

	collector := newCollectorSubscriber()
	s.Registry.GetOrCreate(fp, toStreamParams(req))
	subID, ok := s.Registry.Subscribe(fp, collector)
	if !ok {
		writeError(w, http.StatusInternalServerError, "could not attach to analysis stream")
		return
	}
	defer s.Registry.Unsubscribe(fp, subID)

	select {
	case <-collector.done:
	case <-ctx.Done():
		writeError(w, http.StatusRequestTimeout, "request cancelled")
		return
	}

	if collector.errMsg != "" {
		writeError(w, http.StatusServiceUnavailable, collector.errMsg)
		return
	}

	record, err := s.Store.FindAnalysisByFingerprint(ctx, fp)
	if err != nil || record == nil {
		writeJSON(w, http.StatusOK, map[string]string{"fullResponse": collector.full})
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse(record, false, record.AccessCount))
}

// handleAnalyzeStream implements POST /analyze/stream (spec §6): the
// client is subscribed directly to the Stream Registry (or a cache-hit
// replay) and receives live SSE frames.
func (s *Server) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req, ok := decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}
	fp := analysisFingerprint(req).String()
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := newSSESubscriber(w, flusher, ctx)

	if record, err := s.Store.FindAnalysisByFingerprint(ctx, fp); err == nil && record != nil {
		if _, err := s.Store.IncrementAnalysisAccess(ctx, fp); err != nil {
			_ = err
		}
		analysis.ReplayCacheHit(sub, record)
		return
	}

	s.Registry.GetOrCreate(fp, toStreamParams(req))
	subID, ok := s.Registry.Subscribe(fp, sub)
	if !ok {
		_ = sub.Send(stream.Frame{Err: "could not attach to analysis stream"})
		return
	}
	defer s.Registry.Unsubscribe(fp, subID)
	<-ctx.Done()
}

// decodeAnalyzeRequest retrieves the request withAnalyzeBody already decoded
// and validated before the quota middleware ran.
func decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (analyzeRequest, bool) {
	req, ok := r.Context().Value(analyzeRequestCtxKey).(analyzeRequest)
	if !ok {
		writeError(w, http.StatusInternalServerError, "analysis request not decoded")
		return analyzeRequest{}, false
	}
	return req, true
}

func analysisFingerprint(req analyzeRequest) fingerprint.Fingerprint {
	return fingerprint.Analysis(req.Sentence, req.TargetWord, req.TargetLanguage, req.NativeLanguage, req.ContextBefore, req.ContextAfter)
}

func toStreamParams(req analyzeRequest) stream.Params {
	return stream.Params{
		Sentence:       req.Sentence,
		TargetWord:     req.TargetWord,
		TargetLanguage: req.TargetLanguage,
		NativeLanguage: req.NativeLanguage,
		ContextBefore:  req.ContextBefore,
		ContextAfter:   req.ContextAfter,
	}
}

func analysisResponse(a *store.Analysis, cached bool, accessCount int64) map[string]any {
	return map[string]any{
		"fullTranslation":    a.FullTranslation,
		"literalTranslation": a.LiteralTranslation,
		"grammarAnalysis":    a.GrammarAnalysis,
		"breakdown":          a.Breakdown,
		"idioms":             a.Idioms,
		"difficultyNotes":    a.DifficultyNotes,
		"cached":             cached,
		"accessCount":        accessCount,
	}
}

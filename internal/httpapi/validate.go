package httpapi

import (
	"strings"

	"github.com/clipfinder/clipfinder/internal/apperr"
)

// supportedLanguages is the fixed set spec §6 requires for targetLanguage
// and nativeLanguage: an ISO 639-1 subset plus Chinese locale variants.
var supportedLanguages = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {}, "it": {}, "pt": {}, "ja": {}, "ko": {},
	"ru": {}, "ar": {}, "hi": {}, "vi": {}, "th": {},
	"zh": {}, "zh-cn": {}, "zh-tw": {}, "zh-hk": {},
}

func isSupportedLanguage(code string) bool {
	_, ok := supportedLanguages[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// analyzeRequest is the shared body shape of POST /analyze and
// POST /analyze/stream (spec §6).
type analyzeRequest struct {
	Sentence       string `json:"sentence"`
	TargetWord     string `json:"targetWord"`
	TargetLanguage string `json:"targetLanguage"`
	NativeLanguage string `json:"nativeLanguage"`
	ContextBefore  string `json:"contextBefore"`
	ContextAfter   string `json:"contextAfter"`
	VideoTimestamp float64 `json:"videoTimestamp,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

func (r analyzeRequest) validate() error {
	switch {
	case strings.TrimSpace(r.Sentence) == "":
		return apperr.ErrInvalidInput
	case strings.TrimSpace(r.TargetWord) == "":
		return apperr.ErrInvalidInput
	case len(r.Sentence) > 1000:
		return apperr.ErrInvalidInput
	case len(r.TargetWord) > 100:
		return apperr.ErrInvalidInput
	case len(r.ContextBefore) > 500 || len(r.ContextAfter) > 500:
		return apperr.ErrInvalidInput
	case !isSupportedLanguage(r.TargetLanguage):
		return apperr.ErrInvalidInput
	case !isSupportedLanguage(r.NativeLanguage):
		return apperr.ErrInvalidInput
	}
	return nil
}

// searchRequest is POST /search's body (spec §6).
type searchRequest struct {
	Query string `json:"query"`
	JobID string `json:"jobId,omitempty"`
}

package adapters

import (
	"encoding/json"
	"testing"

	"github.com/cockroachdb/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/clipfinder/clipfinder/internal/apperr"
)

func TestClassifyUpstreamErrorConfig(t *testing.T) {
	for _, code := range []int{400, 401} {
		err := classifyUpstreamError(&openai.APIError{HTTPStatusCode: code, Message: "bad key"})
		if !errors.Is(err, apperr.ErrUpstreamConfig) {
			t.Errorf("status %d: expected ErrUpstreamConfig, got %v", code, err)
		}
	}
}

func TestClassifyUpstreamErrorTransient(t *testing.T) {
	for _, code := range []int{429, 500, 503} {
		err := classifyUpstreamError(&openai.APIError{HTTPStatusCode: code, Message: "try again"})
		if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
			t.Errorf("status %d: expected ErrUpstreamUnavailable, got %v", code, err)
		}
	}
}

func TestClassifyUpstreamErrorNonAPIError(t *testing.T) {
	err := classifyUpstreamError(errors.New("connection reset"))
	if !errors.Is(err, apperr.ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable for a non-APIError, got %v", err)
	}
}

func TestBuildAnalysisPromptIncludesAllFields(t *testing.T) {
	req := AnalysisRequest{
		Sentence:       "She broke the ice.",
		TargetWord:     "ice",
		TargetLanguage: "es",
		NativeLanguage: "en",
		ContextBefore:  "before",
		ContextAfter:   "after",
	}
	prompt := buildAnalysisPrompt(req)
	var decoded map[string]string
	if err := json.Unmarshal([]byte(prompt), &decoded); err != nil {
		t.Fatalf("prompt is not valid JSON: %v", err)
	}
	if decoded["sentence"] != req.Sentence || decoded["targetWord"] != req.TargetWord {
		t.Errorf("decoded prompt missing expected fields: %+v", decoded)
	}
}

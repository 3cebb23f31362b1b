package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	cockroacherrors "github.com/cockroachdb/errors"
	openai "github.com/sashabaranov/go-openai"

	"github.com/clipfinder/clipfinder/internal/apperr"
)

// upstreamBackoff is the retry schedule spec §5 requires for the upstream
// AI call (exponential 1s/2s/4s), the same shape as the analysis cache's
// persistBackoff.
var upstreamBackoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// AnalysisRequest is the upstream generative-AI call's input, the fixed
// tuple spec §4.2 hashes for the analysis fingerprint.
type AnalysisRequest struct {
	Sentence       string
	TargetWord     string
	TargetLanguage string
	NativeLanguage string
	ContextBefore  string
	ContextAfter   string
}

// AIStreamer drives the upstream generative-AI service (out of scope per
// spec §1, specified only by the interface C10's stream driver consumes).
type AIStreamer interface {
	// Stream invokes the upstream call and delivers each incremental delta
	// to onChunk as it arrives. Returns the full concatenated text.
	Stream(ctx context.Context, req AnalysisRequest, onChunk func(delta string)) (full string, err error)
}

// OpenAIStreamer implements AIStreamer with go-openai's chat completion
// streaming endpoint, the same client type the teacher's asr.go and
// storage/store.go construct for ASR and embeddings.
type OpenAIStreamer struct {
	Client *openai.Client
	Model  string

	// MaxRetries bounds the retry loop spec §5 describes for transient
	// upstream failures (rate-limit, 5xx, timeout). 400/401 are never
	// retried regardless of this value.
	MaxRetries int
}

func NewOpenAIStreamer(client *openai.Client, model string, maxRetries int) *OpenAIStreamer {
	return &OpenAIStreamer{Client: client, Model: model, MaxRetries: maxRetries}
}

// Stream retries streamOnce up to MaxRetries times on transient upstream
// errors (spec §5's "up to 3 retries, exponential backoff 1s/2s/4s... never
// retried on 400/401"). A retry only happens if the failed attempt never
// delivered a chunk to onChunk — once a real subscriber has received part
// of a response there is no way to retract it, so a mid-stream failure is
// returned as-is.
func (o *OpenAIStreamer) Stream(ctx context.Context, req AnalysisRequest, onChunk func(delta string)) (string, error) {
	prompt := buildAnalysisPrompt(req)
	attempts := o.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		full, err := o.streamOnce(ctx, prompt, onChunk)
		if err == nil {
			return full, nil
		}
		lastErr = err
		if full != "" || !cockroacherrors.Is(err, apperr.ErrUpstreamUnavailable) || attempt == attempts-1 {
			return full, err
		}
		delay := upstreamBackoff[len(upstreamBackoff)-1]
		if attempt < len(upstreamBackoff) {
			delay = upstreamBackoff[attempt]
		}
		select {
		case <-ctx.Done():
			return full, ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", lastErr
}

func (o *OpenAIStreamer) streamOnce(ctx context.Context, prompt string, onChunk func(delta string)) (string, error) {
	stream, err := o.Client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return "", classifyUpstreamError(err)
	}
	defer stream.Close()

	var full string
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return full, nil
		}
		if err != nil {
			return full, classifyUpstreamError(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full += delta
		onChunk(delta)
	}
}

// classifyUpstreamError maps a go-openai error into the spec §7 taxonomy:
// 400/401 are configuration errors and must never be retried; everything
// else (timeouts, 429, 5xx) is transient and eligible for retry.
func classifyUpstreamError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 400, 401:
			return cockroacherrors.Wrap(apperr.ErrUpstreamConfig, apiErr.Message)
		default:
			return cockroacherrors.Wrap(apperr.ErrUpstreamUnavailable, apiErr.Message)
		}
	}
	return cockroacherrors.Wrap(apperr.ErrUpstreamUnavailable, err.Error())
}

const analysisSystemPrompt = `You are a language-learning assistant. Given a sentence, a target word inside ` +
	`it, and a native/target language pair, respond with a single JSON object with the fields ` +
	`fullTranslation, literalTranslation, grammarAnalysis, breakdown (array of strings), idioms ` +
	`(array of strings), and an optional difficultyNotes string. Respond with JSON only.`

func buildAnalysisPrompt(req AnalysisRequest) string {
	payload := map[string]string{
		"sentence":       req.Sentence,
		"targetWord":     req.TargetWord,
		"targetLanguage": req.TargetLanguage,
		"nativeLanguage": req.NativeLanguage,
		"contextBefore":  req.ContextBefore,
		"contextAfter":   req.ContextAfter,
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

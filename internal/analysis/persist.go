// Package analysis implements the Analysis Cache & Replayer (spec C11):
// persisting a completed stream's accumulated text as a structured
// Analysis record, and replaying a cache hit's chunk log with the same
// pacing law the live Stream Registry replay uses (or, for legacy records
// with none, a synthesized chunking of the stored text at a fixed delay
// per chunk). Grounded on the
// teacher's asr.go retry-with-backoff pattern for calling unreliable
// external services.
package analysis

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/clipfinder/clipfinder/internal/store"
	"github.com/clipfinder/clipfinder/internal/stream"
)

var persistBackoff = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// Cache wires the Stream Registry's completion hook to durable storage.
type Cache struct {
	Store *store.Store
}

// structuredPayload is the shape the upstream AI call is prompted to
// return (internal/adapters.analysisSystemPrompt names the same fields).
type structuredPayload struct {
	FullTranslation    string   `json:"fullTranslation"`
	LiteralTranslation string   `json:"literalTranslation"`
	GrammarAnalysis    string   `json:"grammarAnalysis"`
	Breakdown          []string `json:"breakdown"`
	Idioms             []string `json:"idioms"`
	DifficultyNotes    string   `json:"difficultyNotes"`
}

// OnComplete is registered as the Stream Registry's completion hook (spec
// §4.11 "On complete, parse the accumulated text as a JSON object... and
// insert an Analysis record"). Persistence failure never reaches the
// in-flight response — the stream has already delivered its terminal
// frame by the time this runs.
func (c *Cache) OnComplete(fingerprint, full string, chunkLog []stream.ChunkEntry, params stream.Params) {
	payload, err := parseStructuredPayload(full)
	if err != nil {
		log.Printf("analysis: job %s: could not parse structured payload: %v", fingerprint, err)
		return
	}

	record := store.Analysis{
		Fingerprint:        fingerprint,
		Sentence:           params.Sentence,
		TargetWord:         params.TargetWord,
		TargetLanguage:     params.TargetLanguage,
		NativeLanguage:     params.NativeLanguage,
		ContextBefore:      params.ContextBefore,
		ContextAfter:       params.ContextAfter,
		FullTranslation:    payload.FullTranslation,
		LiteralTranslation: payload.LiteralTranslation,
		GrammarAnalysis:    payload.GrammarAnalysis,
		Breakdown:          payload.Breakdown,
		Idioms:             payload.Idioms,
		DifficultyNotes:    payload.DifficultyNotes,
		ChunkLog:           toStoreChunkLog(chunkLog),
		AccessCount:        1,
	}

	c.persistWithRetry(fingerprint, record)
}

// OnError is registered as the Stream Registry's error hook; spec §4.11
// does not ask for anything to be persisted on an errored stream.
func (c *Cache) OnError(fingerprint, msg string) {
	log.Printf("analysis: stream %s errored before completion: %s", fingerprint, msg)
}

func (c *Cache) persistWithRetry(fingerprint string, record store.Analysis) {
	ctx := context.Background()
	var lastErr error
	attempts := append([]time.Duration{0}, persistBackoff...)
	for _, delay := range attempts {
		if delay > 0 {
			time.Sleep(delay)
		}
		if err := c.Store.InsertAnalysis(ctx, record); err != nil {
			lastErr = err
			continue
		}
		return
	}
	log.Printf("analysis: job %s: persist failed after %d attempts: %v", fingerprint, len(attempts), lastErr)
}

// parseStructuredPayload strips optional Markdown code-fence framing
// (``` or ```json ... ```) and unmarshals the remainder as JSON.
func parseStructuredPayload(raw string) (structuredPayload, error) {
	var payload structuredPayload
	cleaned := stripCodeFence(raw)
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return structuredPayload{}, err
	}
	return payload, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) >= 2 {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func toStoreChunkLog(in []stream.ChunkEntry) []store.AnalysisChunk {
	out := make([]store.AnalysisChunk, len(in))
	for i, c := range in {
		out[i] = store.AnalysisChunk{Text: c.Text, RelativeTimestampMs: c.RelativeTimestampMs}
	}
	return out
}

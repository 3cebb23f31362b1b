package analysis

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/clipfinder/clipfinder/internal/store"
	"github.com/clipfinder/clipfinder/internal/stream"
)

const (
	legacyChunkMaxLen = 100
	legacyChunkDelay  = 15 * time.Millisecond
	cacheReplayMin    = 5 * time.Millisecond
	cacheReplayMax    = 30 * time.Millisecond
)

// ReplayCacheHit implements spec §4.11's cache-hit path: stream a's chunk
// log back to sub with the same pacing law as a live replay, or, for a
// legacy record with no stored chunk log, synthesize one and send its
// pieces legacyChunkDelay apart. Finishes with a
// terminal {done, fullResponse} frame reconstructed from the structured
// fields.
func ReplayCacheHit(sub stream.Subscriber, a *store.Analysis) {
	entries := a.ChunkLog
	legacy := len(entries) == 0
	if legacy {
		entries = synthesizeLegacyChunks(reconstructFullText(a))
	}

	for i, c := range entries {
		if !sub.Open() {
			return
		}
		if err := sub.Send(stream.Frame{Chunk: c.Text}); err != nil {
			return
		}
		if i+1 < len(entries) && legacy {
			time.Sleep(legacyChunkDelay)
		} else if i+1 < len(entries) {
			gap := entries[i+1].RelativeTimestampMs - c.RelativeTimestampMs
			time.Sleep(clamp(time.Duration(gap) * time.Millisecond / 3))
		}
	}

	if !sub.Open() {
		return
	}
	_ = sub.Send(stream.Frame{Done: true, FullResponse: reconstructFullText(a)})
}

func clamp(d time.Duration) time.Duration {
	if d < cacheReplayMin {
		return cacheReplayMin
	}
	if d > cacheReplayMax {
		return cacheReplayMax
	}
	return d
}

// reconstructFullText re-renders the structured record as the same JSON
// shape the upstream call originally produced, so a legacy client that
// only understands {done, fullResponse} still gets the complete payload.
func reconstructFullText(a *store.Analysis) string {
	payload := structuredPayload{
		FullTranslation:    a.FullTranslation,
		LiteralTranslation: a.LiteralTranslation,
		GrammarAnalysis:    a.GrammarAnalysis,
		Breakdown:          a.Breakdown,
		Idioms:             a.Idioms,
		DifficultyNotes:    a.DifficultyNotes,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(b)
}

// synthesizeLegacyChunks breaks text into pieces no longer than
// legacyChunkMaxLen, breaking at the nearest whitespace/punctuation
// boundary, each separated by a fixed 15ms delay (spec §4.11).
func synthesizeLegacyChunks(text string) []store.AnalysisChunk {
	var out []store.AnalysisChunk
	remaining := text
	var elapsed int64
	for len(remaining) > 0 {
		cut := legacyChunkMaxLen
		if cut >= len(remaining) {
			cut = len(remaining)
		} else {
			if idx := lastBreak(remaining[:cut]); idx > 0 {
				cut = idx
			}
		}
		piece := remaining[:cut]
		remaining = remaining[cut:]
		out = append(out, store.AnalysisChunk{Text: piece, RelativeTimestampMs: elapsed})
		elapsed += legacyChunkDelay.Milliseconds()
	}
	return out
}

const breakChars = " \t\n.,!?;:"

func lastBreak(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		if strings.ContainsRune(breakChars, rune(s[i])) {
			return i + 1
		}
	}
	return len(s)
}

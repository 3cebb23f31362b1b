package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/clipfinder/clipfinder/internal/store"
)

func TestSynthesizeLegacyChunksBreaksAtBoundary(t *testing.T) {
	text := strings.Repeat("word ", 40) // well over legacyChunkMaxLen
	chunks := synthesizeLegacyChunks(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for long text, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c.Text) > legacyChunkMaxLen {
			t.Errorf("chunk %q exceeds legacyChunkMaxLen", c.Text)
		}
	}
	var rejoined strings.Builder
	for _, c := range chunks {
		rejoined.WriteString(c.Text)
	}
	if rejoined.String() != text {
		t.Error("rejoined chunks do not reconstruct the original text")
	}
}

func TestSynthesizeLegacyChunksTimestampsIncrease(t *testing.T) {
	chunks := synthesizeLegacyChunks(strings.Repeat("x", 300))
	for i := 1; i < len(chunks); i++ {
		if chunks[i].RelativeTimestampMs <= chunks[i-1].RelativeTimestampMs {
			t.Errorf("timestamps not strictly increasing at index %d", i)
		}
	}
}

func TestSynthesizeLegacyChunksShortText(t *testing.T) {
	chunks := synthesizeLegacyChunks("short")
	if len(chunks) != 1 || chunks[0].Text != "short" {
		t.Errorf("chunks = %+v, want a single chunk with the full text", chunks)
	}
}

func TestReconstructFullTextRoundTrips(t *testing.T) {
	a := &store.Analysis{
		FullTranslation: "hola",
		Breakdown:       []string{"a", "b"},
	}
	out := reconstructFullText(a)
	payload, err := parseStructuredPayload(out)
	if err != nil {
		t.Fatalf("reconstructed text did not parse: %v", err)
	}
	if payload.FullTranslation != "hola" {
		t.Errorf("FullTranslation = %q, want %q", payload.FullTranslation, "hola")
	}
}

func TestClampBounds(t *testing.T) {
	if d := clamp(0); d != cacheReplayMin {
		t.Errorf("clamp(0) = %v, want %v", d, cacheReplayMin)
	}
	if d := clamp(time.Hour); d != cacheReplayMax {
		t.Errorf("clamp(1h) = %v, want %v", d, cacheReplayMax)
	}
}

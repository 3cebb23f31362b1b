package analysis

import (
	"testing"

	"github.com/clipfinder/clipfinder/internal/stream"
)

func TestStripCodeFencePlain(t *testing.T) {
	if got := stripCodeFence(`{"a":1}`); got != `{"a":1}` {
		t.Errorf("stripCodeFence(plain) = %q", got)
	}
}

func TestStripCodeFenceWithLanguageTag(t *testing.T) {
	raw := "```json\n{\"a\":1}\n```"
	if got := stripCodeFence(raw); got != `{"a":1}` {
		t.Errorf("stripCodeFence = %q, want %q", got, `{"a":1}`)
	}
}

func TestStripCodeFenceBare(t *testing.T) {
	raw := "```\n{\"a\":1}\n```"
	if got := stripCodeFence(raw); got != `{"a":1}` {
		t.Errorf("stripCodeFence = %q, want %q", got, `{"a":1}`)
	}
}

func TestParseStructuredPayload(t *testing.T) {
	raw := "```json\n{\"fullTranslation\":\"hola\",\"breakdown\":[\"a\",\"b\"]}\n```"
	payload, err := parseStructuredPayload(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.FullTranslation != "hola" {
		t.Errorf("FullTranslation = %q, want %q", payload.FullTranslation, "hola")
	}
	if len(payload.Breakdown) != 2 {
		t.Errorf("len(Breakdown) = %d, want 2", len(payload.Breakdown))
	}
}

func TestParseStructuredPayloadInvalidJSON(t *testing.T) {
	if _, err := parseStructuredPayload("not json at all"); err == nil {
		t.Fatal("expected an error for non-JSON payload")
	}
}

func TestToStoreChunkLog(t *testing.T) {
	in := []stream.ChunkEntry{{Text: "a", RelativeTimestampMs: 10}, {Text: "b", RelativeTimestampMs: 20}}
	out := toStoreChunkLog(in)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].Text != "a" || out[0].RelativeTimestampMs != 10 {
		t.Errorf("out[0] = %+v", out[0])
	}
}

func TestToStoreChunkLogNil(t *testing.T) {
	if out := toStoreChunkLog(nil); len(out) != 0 {
		t.Errorf("len(out) = %d, want 0", len(out))
	}
}

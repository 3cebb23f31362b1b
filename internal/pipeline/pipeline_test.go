package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/clipfinder/clipfinder/internal/captions"
	"github.com/clipfinder/clipfinder/internal/match"
)

func vttCue(startSec int, text string) string {
	return fmt.Sprintf("WEBVTT\n\n00:00:%02d.000 --> 00:00:%02d.000\n%s\n", startSec, startSec+2, text)
}

type fakeTranscriber struct {
	chunks []string // vtt per chunk index
	calls  int
}

func (f *fakeTranscriber) TranscribeChunk(ctx context.Context, audioPath string, chunkIndex int, chunkDurationSec float64) (string, error) {
	f.calls++
	if chunkIndex >= len(f.chunks) {
		return "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nfiller\n", nil
	}
	return f.chunks[chunkIndex], nil
}

func TestTranscribeUntilMatchStopsOneChunkAfterHit(t *testing.T) {
	ft := &fakeTranscriber{chunks: []string{
		vttCue(0, "nothing relevant here"),
		vttCue(0, "she was breaking the ice with everyone"),
		vttCue(0, "more text after the match"),
	}}
	p := &Pipeline{Transcribe: ft, MaxTranscribeChunks: 10, ChunkSeconds: 30}

	_, matched := p.transcribeUntilMatch(context.Background(), "audio.mp3", "break the ice", true)
	if !matched {
		t.Fatal("expected a match")
	}
	if ft.calls != 3 {
		t.Errorf("transcriber called %d times, want 3 (match chunk + one extra)", ft.calls)
	}
}

func TestTranscribeUntilMatchNoMatchExhaustsChunks(t *testing.T) {
	ft := &fakeTranscriber{chunks: []string{
		vttCue(0, "nothing relevant"),
		vttCue(0, "still nothing"),
	}}
	p := &Pipeline{Transcribe: ft, MaxTranscribeChunks: 2, ChunkSeconds: 30}

	_, matched := p.transcribeUntilMatch(context.Background(), "audio.mp3", "break the ice", true)
	if matched {
		t.Fatal("expected no match")
	}
	if ft.calls != 2 {
		t.Errorf("transcriber called %d times, want 2 (MaxTranscribeChunks)", ft.calls)
	}
}

func TestJoinCueText(t *testing.T) {
	cues := []captions.Cue{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	if got := joinCueText(cues); got != "a b c" {
		t.Errorf("joinCueText = %q, want %q", got, "a b c")
	}
}

func TestOverlappingFiltersToBoundary(t *testing.T) {
	cues := []captions.Cue{
		{Text: "before", Start: 0, Duration: 1},
		{Text: "inside1", Start: 2, Duration: 1},
		{Text: "inside2", Start: 3, Duration: 1},
		{Text: "after", Start: 10, Duration: 1},
	}
	boundary := match.Boundary{StartTime: 2, EndTime: 4}
	out := overlapping(cues, boundary)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].Text != "inside1" || out[1].Text != "inside2" {
		t.Errorf("overlapping cues = %+v", out)
	}
}

func TestPipelineDefaults(t *testing.T) {
	p := &Pipeline{}
	if p.maxCandidates() != maxCandidatesDefault {
		t.Errorf("maxCandidates() = %d, want default %d", p.maxCandidates(), maxCandidatesDefault)
	}
	if p.maxChunks() != maxTranscribeChunksDefault {
		t.Errorf("maxChunks() = %d, want default %d", p.maxChunks(), maxTranscribeChunksDefault)
	}
	if p.chunkSeconds() != 30 {
		t.Errorf("chunkSeconds() = %v, want 30", p.chunkSeconds())
	}
	p2 := &Pipeline{MaxCandidates: 3, MaxTranscribeChunks: 4, ChunkSeconds: 15}
	if p2.maxCandidates() != 3 || p2.maxChunks() != 4 || p2.chunkSeconds() != 15 {
		t.Error("explicit Pipeline fields should override defaults")
	}
}

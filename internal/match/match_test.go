package match

import (
	"testing"

	"github.com/clipfinder/clipfinder/internal/captions"
)

func TestMatchExactWord(t *testing.T) {
	cues := []captions.Cue{
		{Text: "this is a test sentence", Start: 0, Duration: 2},
		{Text: "nothing here", Start: 2, Duration: 2},
	}
	if i := Match(cues, "test", false); i != 0 {
		t.Errorf("Match = %d, want 0", i)
	}
}

func TestMatchWordBoundary(t *testing.T) {
	// "test" is not a whole word in "testing", so pass 1 misses; pass 3's
	// loose substring search still finds it in cue 0.
	cues := []captions.Cue{{Text: "testing the waters", Start: 0, Duration: 2}}
	if i := Match(cues, "test", false); i != 0 {
		t.Errorf("Match(%q) on %q = %d, want 0 from the pass-3 substring fallback", "test", cues[0].Text, i)
	}
}

func TestMatchSentenceAcrossCues(t *testing.T) {
	cues := []captions.Cue{
		{Text: "once in a", Start: 0, Duration: 1},
		{Text: "blue moon", Start: 1, Duration: 1},
	}
	if i := Match(cues, "once in a blue moon", true); i != 0 {
		t.Errorf("Match = %d, want 0", i)
	}
}

func TestMatchSentenceFuzzyVariation(t *testing.T) {
	cues := []captions.Cue{
		{Text: "she was breaking", Start: 0, Duration: 1},
		{Text: "the ice with them", Start: 1, Duration: 1},
	}
	if i := Match(cues, "break the ice", true); i != 0 {
		t.Errorf("Match = %d, want 0 (fuzzy pass should accept 'breaking' for 'break')", i)
	}
}

func TestMatchNoMatch(t *testing.T) {
	cues := []captions.Cue{{Text: "completely unrelated", Start: 0, Duration: 1}}
	if i := Match(cues, "break the ice", true); i != -1 {
		t.Errorf("Match = %d, want -1", i)
	}
}

func TestContainsPhraseOrVariation(t *testing.T) {
	if !ContainsPhraseOrVariation("she was breaking the ice", "break the ice") {
		t.Error("expected variation-tolerant match to succeed")
	}
	if ContainsPhraseOrVariation("nothing relevant", "break the ice") {
		t.Error("expected no match")
	}
}

func TestDetectBoundaryExpandsToSentence(t *testing.T) {
	cues := []captions.Cue{
		{Text: "First sentence.", Start: 0, Duration: 1},
		{Text: "She was breaking the ice", Start: 1, Duration: 1},
		{Text: "with everyone there.", Start: 2, Duration: 1},
		{Text: "Third sentence.", Start: 3, Duration: 1},
	}
	b := DetectBoundary(cues, 1, 2.0)
	if b.StartIndex != 1 || b.EndIndex != 2 {
		t.Errorf("boundary = [%d,%d], want [1,2]", b.StartIndex, b.EndIndex)
	}
	wantEnd := cues[2].Start + cues[2].Duration + 2.0
	if b.EndTime != wantEnd {
		t.Errorf("EndTime = %v, want %v", b.EndTime, wantEnd)
	}
}

func TestExtractWordsDedupAndNormalize(t *testing.T) {
	words := ExtractWords("Break, a leg! Break a leg.")
	want := []string{"break", "a", "leg"}
	if len(words) != len(want) {
		t.Fatalf("len(words) = %d, want %d (%v)", len(words), len(want), words)
	}
	for i, w := range want {
		if words[i] != w {
			t.Errorf("words[%d] = %q, want %q", i, words[i], w)
		}
	}
}

package pipeline

import (
	"testing"

	"github.com/clipfinder/clipfinder/internal/canon"
)

func TestSearchStrategiesSentenceIncludesQuotedAndBare(t *testing.T) {
	strategies := searchStrategies("break a leg", canon.KindSentence)
	if len(strategies) == 0 {
		t.Fatal("expected at least one strategy")
	}
	if strategies[0] != `"break a leg"` {
		t.Errorf("strategies[0] = %q, want quoted canonical first", strategies[0])
	}
	found := false
	for _, s := range strategies {
		if s == "break a leg" {
			found = true
		}
	}
	if !found {
		t.Error("expected the bare canonical phrase among sentence strategies")
	}
}

func TestSearchStrategiesWordIncludesExplained(t *testing.T) {
	strategies := searchStrategies("serendipity", canon.KindWord)
	found := false
	for _, s := range strategies {
		if s == "serendipity explained" {
			found = true
		}
	}
	if !found {
		t.Error("expected an 'explained' expansion among word strategies")
	}
}

func TestSearchStrategiesDiffersByKind(t *testing.T) {
	word := searchStrategies("x", canon.KindWord)
	sentence := searchStrategies("x", canon.KindSentence)
	if word[0] == sentence[0] {
		t.Error("expected word and sentence strategy ordering to differ")
	}
}

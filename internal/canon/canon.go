// Package canon implements the Query Canonicalizer (spec §4.1): a single
// normalization pass that every downstream component (fingerprinting,
// search, caching) treats as the unique representation of a user query.
package canon

import (
	"strings"

	"github.com/clipfinder/clipfinder/internal/apperr"
)

const maxLength = 200

// Kind classifies a canonical query as a bare word or a sentence.
type Kind string

const (
	KindWord     Kind = "word"
	KindSentence Kind = "sentence"
)

// Query is the canonicalizer's output: the unique input to fingerprinting.
type Query struct {
	Canonical string
	Kind      Kind
}

const terminalPunctuation = ".,!?;:"

// Canonicalize trims outer whitespace, lowercases, and rejects
// length-violators. kind is "sentence" if any whitespace or terminal
// punctuation survives in the trimmed/lowercased form, else "word".
func Canonicalize(raw string) (Query, error) {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" || len(c) > maxLength {
		return Query{}, apperr.ErrInvalidInput
	}
	kind := KindWord
	if containsWhitespaceOrTerminal(c) {
		kind = KindSentence
	}
	return Query{Canonical: c, Kind: kind}, nil
}

func containsWhitespaceOrTerminal(s string) bool {
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return true
		}
		if strings.ContainsRune(terminalPunctuation, r) {
			return true
		}
	}
	return false
}

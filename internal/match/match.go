// Package match implements the Phrase Matcher & Boundary Detector (spec
// §4.8): a variation-tolerant matcher over caption cues, and a sentence
// boundary expander that grows a match index out to the nearest
// sentence-ending punctuation on either side.
package match

import (
	"regexp"
	"strings"

	"github.com/clipfinder/clipfinder/internal/captions"
)

// Variations returns the collapsed set of word-boundary-matchable variants
// for a single token, per spec §4.8's suffix rules.
func Variations(token string) map[string]struct{} {
	out := map[string]struct{}{token: {}}
	switch {
	case strings.HasSuffix(token, "e"):
		stem := strings.TrimSuffix(token, "e")
		out[stem+"ing"] = struct{}{}
		out[stem+"d"] = struct{}{}
	case strings.HasSuffix(token, "t"):
		out[token+"ion"] = struct{}{}
		out[token+"ed"] = struct{}{}
		out[token+"ing"] = struct{}{}
	case strings.HasSuffix(token, "ion"):
		stem := strings.TrimSuffix(token, "ion")
		out[stem] = struct{}{}
		out[stem+"ing"] = struct{}{}
	default:
		out[token+"ing"] = struct{}{}
		out[token+"ed"] = struct{}{}
		out[token+"s"] = struct{}{}
	}
	return out
}

// tokenRegexp builds the \bV\w*\b matcher for a single variation prefix.
func tokenRegexp(variation string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(variation) + `\w*\b`)
}

// hasToken reports whether any variation of token appears, word-bounded, in
// text (already expected lowercase).
func hasToken(text, token string) bool {
	for v := range Variations(token) {
		if tokenRegexp(v).MatchString(text) {
			return true
		}
	}
	return false
}

// tokensOf splits a canonical phrase into its constituent words.
func tokensOf(canonical string) []string {
	return strings.Fields(canonical)
}

// ContainsPhraseOrVariation reports whether text contains the canonical
// phrase or, for multi-word phrases, every token of it (with variations).
// Used by the pipeline's per-chunk early-termination check (spec §4.6.2.c).
func ContainsPhraseOrVariation(text, canonical string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, canonical) {
		return true
	}
	for _, tok := range tokensOf(canonical) {
		if !hasToken(lower, tok) {
			return false
		}
	}
	return len(tokensOf(canonical)) > 0
}

// Match runs the three-pass algorithm over an ordered cue list and returns
// the index of the first matching cue, or -1.
func Match(cues []captions.Cue, canonical string, isSentence bool) int {
	// Pass 1: exact.
	wordRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(canonical) + `\b`)
	for i, c := range cues {
		lower := strings.ToLower(c.Text)
		if isSentence {
			if strings.Contains(lower, canonical) {
				return i
			}
		} else if wordRe.MatchString(lower) {
			return i
		}
	}

	// Pass 2: sentence fuzzy — concatenate [i, i+3) and require every token
	// (with variations) to appear.
	if isSentence {
		tokens := tokensOf(canonical)
		for i := range cues {
			end := i + 3
			if end > len(cues) {
				end = len(cues)
			}
			var sb strings.Builder
			for _, c := range cues[i:end] {
				sb.WriteString(strings.ToLower(c.Text))
				sb.WriteByte(' ')
			}
			window := sb.String()
			allPresent := true
			for _, tok := range tokens {
				if !hasToken(window, tok) {
					allPresent = false
					break
				}
			}
			if allPresent && len(tokens) > 0 {
				return i
			}
		}
	}

	// Pass 3: word loose substring.
	if !isSentence {
		for i, c := range cues {
			if strings.Contains(strings.ToLower(c.Text), canonical) {
				return i
			}
		}
	}

	return -1
}

// Boundary is the result of sentence boundary detection around a match.
type Boundary struct {
	StartIndex int
	EndIndex   int
	StartTime  float64
	EndTime    float64
	Caption    string
}

const sentenceEnders = ".!?"

func endsSentence(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return strings.ContainsRune(sentenceEnders, rune(s[len(s)-1]))
}

// DetectBoundary expands a match index m out to the nearest sentence-ending
// punctuation on both sides (spec §4.8). trailingPadding is added to the
// resulting EndTime (spec §4.6.2.g: 2s trailing padding).
func DetectBoundary(cues []captions.Cue, m int, trailingPadding float64) Boundary {
	start := 0
	for i := m - 1; i >= 0; i-- {
		if endsSentence(cues[i].Text) {
			start = i + 1
			break
		}
		if i == 0 {
			start = 0
		}
	}

	end := len(cues) - 1
	for i := m; i < len(cues); i++ {
		if endsSentence(cues[i].Text) {
			end = i
			break
		}
	}

	texts := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		texts = append(texts, cues[i].Text)
	}

	return Boundary{
		StartIndex: start,
		EndIndex:   end,
		StartTime:  cues[start].Start,
		EndTime:    cues[end].Start + cues[end].Duration + trailingPadding,
		Caption:    strings.TrimSpace(strings.Join(texts, " ")),
	}
}

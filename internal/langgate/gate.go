// Package langgate implements the English-language heuristic gate (spec
// §4.6.2.e): a candidate's merged captions are accepted only if they read
// like English prose, approximated by counting common function words and
// the non-ASCII character ratio. Grounded on the teacher's
// text_correction.go, which scores transcript quality with a similar
// fixed-vocabulary-hit-count heuristic.
package langgate

import "strings"

// functionWords is the fixed vocabulary spec §4.6.2.e counts occurrences of
// ("a fixed list of common English function words").
var functionWords = []string{
	"the", "a", "an", "is", "are", "was", "were", "of", "to", "in",
	"and", "it", "that", "this", "for", "on", "with", "as", "at", "by",
	"from", "you", "he", "she", "we", "they", "but", "not", "have", "has",
}

// Result carries the two measurements spec §4.6.2.e gates on.
type Result struct {
	FunctionWordHits int
	NonASCIIRatio    float64
	Accepted         bool
}

// Evaluate scores joined caption text and applies the accept thresholds:
// at least minFunctionWordHits isolated function-word occurrences, and a
// non-ASCII character ratio below maxNonASCIIRatio.
func Evaluate(text string, minFunctionWordHits int, maxNonASCIIRatio float64) Result {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	wordSet := make(map[string]int, len(words))
	for _, w := range words {
		wordSet[strings.Trim(w, ".,!?;:\"'()")]++
	}

	hits := 0
	for _, fw := range functionWords {
		hits += wordSet[fw]
	}

	total := 0
	nonASCII := 0
	for _, r := range text {
		total++
		if r > 127 {
			nonASCII++
		}
	}
	ratio := 0.0
	if total > 0 {
		ratio = float64(nonASCII) / float64(total)
	}

	return Result{
		FunctionWordHits: hits,
		NonASCIIRatio:    ratio,
		Accepted:         hits >= minFunctionWordHits && ratio < maxNonASCIIRatio,
	}
}

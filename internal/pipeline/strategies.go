package pipeline

import "github.com/clipfinder/clipfinder/internal/canon"

// searchStrategies produces the ordered query-expansion list spec §4.6.1
// derives from (canonical, kind). Each strategy is tried against the
// catalog in order until enough unique candidates are collected.
func searchStrategies(canonical string, kind canon.Kind) []string {
	quoted := `"` + canonical + `"`
	if kind == canon.KindSentence {
		return []string{
			quoted,
			canonical,
			canonical + " example",
			quoted + " explained",
		}
	}
	return []string{
		quoted + " explained",
		canonical + " explained",
		canonical,
		quoted,
	}
}

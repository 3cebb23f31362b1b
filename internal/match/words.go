package match

import "strings"

const wordPunctuation = `.,!?;:'"()[]{}—–-`

// ExtractWords implements the word extraction rule of spec §4.9: lowercase,
// replace punctuation with spaces, split on whitespace, drop empties,
// deduplicate.
func ExtractWords(caption string) []string {
	lower := strings.ToLower(caption)
	replaced := strings.Map(func(r rune) rune {
		if strings.ContainsRune(wordPunctuation, r) {
			return ' '
		}
		return r
	}, lower)

	seen := make(map[string]struct{})
	var out []string
	for _, w := range strings.Fields(replaced) {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

package textclean

import (
	"sort"
	"unicode/utf8"
)

var candidates = buildCandidates()

func buildCandidates() []string {
	seen := map[string]struct{}{}
	for _, w := range knownWords {
		seen[w] = struct{}{}
	}
	for _, w := range confusions {
		seen[w] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// IsLowQuality reports whether a token looks like a recognition error:
// mostly non-Persian, containing Latin letters or digits, or long and not
// made only of Persian letters. Tokens without any Persian letter (numbers,
// punctuation, Latin words) are never flagged.
func IsLowQuality(tok string) bool {
	total := utf8.RuneCountInString(tok)
	if total == 0 {
		return false
	}
	persian := 0
	asciiAlnum := false
	for _, r := range tok {
		switch {
		case isPersianLetter(r):
			persian++
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			asciiAlnum = true
		}
	}
	if persian == 0 {
		return false
	}
	if float64(persian)/float64(total) < 0.6 || asciiAlnum {
		return true
	}
	return persian != total && total > 4
}

func replaceConfusions(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		if i+1 < len(tokens) {
			if repl, ok := phraseConfusions[[2]string{tokens[i], tokens[i+1]}]; ok {
				out = append(out, repl)
				i++
				continue
			}
		}
		out = append(out, replaceToken(tokens[i]))
	}
	return out
}

func replaceToken(tok string) string {
	if repl, ok := confusions[tok]; ok {
		return repl
	}
	if !IsLowQuality(tok) {
		return tok
	}
	best, bestScore := "", 10
	for _, cand := range candidates {
		if d := levenshtein(tok, cand); d < bestScore {
			best, bestScore = cand, d
		}
	}
	if best != "" && bestScore <= 2 {
		return best
	}
	return tok
}

// levenshtein is the rune-level edit distance.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

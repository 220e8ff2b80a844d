package textclean

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxPasses = 16

var (
	letterReplacer = strings.NewReplacer(normalizeReplacer...)
	punctuation    = "،,؛;!؟?"
)

// stripMarks removes combining marks (harakat, tanwin, shadda). Precomposed
// letters such as آ are kept because no decomposition is applied.
func stripMarks(text string) string {
	t := transform.Chain(runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

func normalizeChars(text string) string {
	text = norm.NFC.String(text)
	text = letterReplacer.Replace(text)
	return stripMarks(text)
}

// Normalize unifies characters and removes fillers without touching word
// boundaries or spellings.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	text := normalizeChars(raw)
	text = removeFillers(strings.Fields(text))
	return strings.Join(strings.Fields(text), " ")
}

type token struct {
	lead, core, trail string
}

func splitPunct(field string) token {
	core := strings.TrimLeft(field, punctuation)
	lead := field[:len(field)-len(core)]
	trimmed := strings.TrimRight(core, punctuation)
	return token{lead: lead, core: trimmed, trail: core[len(trimmed):]}
}

func removeFillers(fields []string) string {
	toks := make([]token, len(fields))
	for i, f := range fields {
		toks[i] = splitPunct(f)
	}

	out := make([]string, 0, len(fields))
	for i := 0; i < len(toks); {
		if n := matchFiller(toks, i); n > 0 {
			if toks[i].lead != "" {
				out = append(out, toks[i].lead)
			}
			if last := toks[i+n-1]; last.trail != "" {
				out = append(out, last.trail)
			}
			i += n
			continue
		}
		out = append(out, fields[i])
		i++
	}
	return strings.Join(out, " ")
}

// matchFiller returns how many tokens starting at i form a filler, or 0.
func matchFiller(toks []token, i int) int {
	for _, phrase := range fillers {
		if i+len(phrase) > len(toks) {
			continue
		}
		ok := true
		for k, word := range phrase {
			t := toks[i+k]
			if t.core != word {
				ok = false
				break
			}
			if (k > 0 && t.lead != "") || (k < len(phrase)-1 && t.trail != "") {
				ok = false
				break
			}
		}
		if ok {
			return len(phrase)
		}
	}
	return 0
}

func isPersianLetter(r rune) bool {
	return r >= 'آ' && r <= 'ی'
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// splitClitics detaches colloquial object and possessive suffixes
// (کتابشون -> کتاب شون). Stems of two letters or fewer are left alone.
func splitClitics(text string) string {
	var b strings.Builder
	rs := []rune(text)
	for i := 0; i < len(rs); {
		if !isWordRune(rs[i]) {
			b.WriteRune(rs[i])
			i++
			continue
		}
		j := i
		for j < len(rs) && isWordRune(rs[j]) {
			j++
		}
		b.WriteString(splitWord(rs[i:j]))
		i = j
	}
	return b.String()
}

func splitWord(word []rune) string {
	for _, r := range word {
		if !isPersianLetter(r) {
			return string(word)
		}
	}
	if _, ok := cliticExceptions[string(word)]; ok {
		return string(word)
	}
	for stemLen := 2; stemLen < len(word); stemLen++ {
		rest := string(word[stemLen:])
		for _, suffix := range cliticSuffixes {
			if rest != suffix {
				continue
			}
			stem := string(word[:stemLen])
			if _, ok := cliticExceptions[stem]; ok || stemLen <= 2 {
				return string(word)
			}
			return stem + " " + suffix
		}
	}
	return string(word)
}

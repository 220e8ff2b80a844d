package language

import "strings"

type entry struct {
	code2   string
	codes3  []string
	display string
	words   []string
}

// Persian first: it is the default transcription language.
var languages = []entry{
	{"fa", []string{"fas", "per"}, "Persian", []string{"persian", "farsi", "فارسی"}},
	{"en", []string{"eng"}, "English", []string{"english"}},
	{"ar", []string{"ara"}, "Arabic", []string{"arabic"}},
	{"ps", []string{"pus"}, "Pashto", []string{"pashto"}},
	{"tg", []string{"tgk"}, "Tajik", []string{"tajik"}},
	{"ur", []string{"urd"}, "Urdu", []string{"urdu"}},
	{"tr", []string{"tur"}, "Turkish", []string{"turkish"}},
	{"ku", []string{"kur"}, "Kurdish", []string{"kurdish"}},
	{"az", []string{"aze"}, "Azerbaijani", []string{"azerbaijani", "azeri"}},
}

var index = buildIndex()

func buildIndex() map[string]*entry {
	idx := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		idx[e.code2] = e
		for _, code := range e.codes3 {
			idx[code] = e
		}
		for _, word := range e.words {
			idx[word] = e
		}
	}
	return idx
}

func lookup(code string) *entry {
	return index[strings.ToLower(strings.TrimSpace(code))]
}

// ToISO2 converts a known code or language name to ISO 639-1. Unknown
// two-letter codes pass through so whisper can still try them; anything else
// yields "".
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.code2
	}
	code = strings.ToLower(strings.TrimSpace(code))
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns an English name for code, or the uppercased code when
// it is not in the table.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

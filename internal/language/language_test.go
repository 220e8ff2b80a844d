package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"fa", "fa"},
		{"FA", "fa"},
		{"fas", "fa"},
		{"per", "fa"},
		{"Persian", "fa"},
		{" farsi ", "fa"},
		{"فارسی", "fa"},
		{"eng", "en"},
		{"ara", "ar"},
		{"xx", "xx"},
		{"klingon", ""},
		{"", ""},
	}
	for _, tc := range tests {
		if got := ToISO2(tc.input); got != tc.want {
			t.Fatalf("ToISO2(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"fa", "Persian"},
		{"per", "Persian"},
		{"en", "English"},
		{"xx", "XX"},
		{"  ", "Unknown"},
	}
	for _, tc := range tests {
		if got := DisplayName(tc.input); got != tc.want {
			t.Fatalf("DisplayName(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestIndexCoversEveryAlias(t *testing.T) {
	for _, e := range languages {
		for _, alias := range append(append([]string{e.code2}, e.codes3...), e.words...) {
			if got := lookup(alias); got == nil || got.code2 != e.code2 {
				t.Fatalf("alias %q not indexed to %s", alias, e.code2)
			}
		}
	}
}

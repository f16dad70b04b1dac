package search

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"simple words", "crash report", []string{"crash", "report"}},
		{"drops single chars", "a crash b report c", []string{"crash", "report"}},
		{"keeps digits and underscores", "issue_42 v2", []string{"issue_42", "v2"}},
		{"strips punctuation", "crash, report! (urgent)", []string{"crash", "report", "urgent"}},
		{"empty input", "", []string{}},
		{"only noise", "a ! b ?", []string{}},
		{"caps at five tokens", "one1 two2 three3 four4 five5 six6 seven7",
			[]string{"one1", "two2", "three3", "four4", "five5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

package search

import "regexp"

// Tokenizer bounds: tokens shorter than two characters carry no signal, and
// anything past the fifth token only inflates query cost.
const (
	minTokenLen = 2
	maxTokens   = 5
)

var wordPattern = regexp.MustCompile(`\w+`)

// Tokenize splits raw input into at most five word tokens of length >= 2.
// An input with nothing but short words yields no tokens, and callers answer
// such queries without contacting the engine.
func Tokenize(input string) []string {
	words := wordPattern.FindAllString(input, -1)
	tokens := make([]string, 0, maxTokens)
	for _, w := range words {
		if len(w) < minTokenLen {
			continue
		}
		tokens = append(tokens, w)
		if len(tokens) == maxTokens {
			break
		}
	}
	return tokens
}

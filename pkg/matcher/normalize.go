package matcher

import (
	"regexp"
	"strings"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reToken      = regexp.MustCompile(`[a-z0-9]+`)
)

// Input is a user reply prepared once and shared by every rule.
type Input struct {
	Raw        string
	Normalized string
	Tokens     []string

	tokenSet map[string]struct{}
}

// NewInput normalizes raw text: lowercase, trimmed, internal whitespace
// collapsed and trailing sentence punctuation removed.
func NewInput(raw string) Input {
	norm := Normalize(raw)
	tokens := Tokenize(norm)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return Input{Raw: raw, Normalized: norm, Tokens: tokens, tokenSet: set}
}

// HasToken reports whether the input contains tok as a whole token.
func (in Input) HasToken(tok string) bool {
	_, ok := in.tokenSet[tok]
	return ok
}

// Normalize applies the matcher's text normalization.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimRight(s, ".!?")
	return strings.TrimSpace(s)
}

// Tokenize splits already-normalized text into alphanumeric tokens.
func Tokenize(s string) []string {
	return reToken.FindAllString(strings.ToLower(s), -1)
}

func uniqueTokens(s string, minLen int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range Tokenize(s) {
		if len(t) < minLen {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

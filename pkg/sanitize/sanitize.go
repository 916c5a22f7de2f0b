// Package sanitize normalizes free-form chat replies before they reach the
// matcher or the state machine.
//
// Replies typed on phones carry smart quotes, non-breaking spaces and
// zero-width joiners that the matcher's phrase tables never contain. Input
// folds them to their ASCII forms so "I’ll write it" and "I'll write it" match
// the same rule.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize is 4KB, enough for a pasted script.
const DefaultMaxInputSize = 4096

// EnvMaxInputSize overrides DefaultMaxInputSize.
const EnvMaxInputSize = "ADWIZARD_MAX_INPUT_SIZE"

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// typographic maps keyboard autocorrect punctuation to plain ASCII.
var typographic = strings.NewReplacer(
	"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u201b", "'", "\u2032", "'", "\u02bc", "'",
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`, "\u201f", `"`, "\u2033", `"`,
	"\u00ab", `"`, "\u00bb", `"`,
	"\u2010", "-", "\u2011", "-", "\u2012", "-", "\u2013", "-", "\u2014", "-", "\u2212", "-",
	"\u2026", "...",
	"\u00a0", " ", "\u2007", " ", "\u202f", " ",
)

// Input checks the size limit and UTF-8 validity, then folds typographic
// punctuation and drops control and invisible format characters. Newline,
// tab and carriage return survive. Oversized input is rejected, not truncated.
func Input(input string) (string, error) {
	return InputWithLimit(input, MaxInputSize())
}

// InputWithLimit is Input with an explicit byte limit.
func InputWithLimit(input string, limit int) (string, error) {
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	return strings.Map(keep, typographic.Replace(input)), nil
}

// keep is a strings.Map callback; a negative result drops the rune.
func keep(r rune) rune {
	switch {
	case r == '\n' || r == '\t' || r == '\r':
		return r
	case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
		return -1
	}
	return r
}

// MaxInputSize returns the configured limit, honoring EnvMaxInputSize.
func MaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}

package matcher

import (
	"strings"

	"github.com/aretw0/adwizard/pkg/domain"
)

// Rule is one step of the matching cascade.
// Resolve returns the index of the chosen option within q.Options.
type Rule struct {
	Name       string
	Confidence domain.Confidence
	Resolve    func(in Input, q *domain.Question) (int, bool)
}

// Matcher evaluates an ordered list of rules.
type Matcher struct {
	rules []Rule
}

// New creates a Matcher from the given rules, evaluated in order.
// With no rules it uses DefaultRules.
func New(rules ...Rule) *Matcher {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Matcher{rules: rules}
}

var defaultMatcher = New()

// Match runs the default rule cascade.
func Match(input string, q *domain.Question) domain.MatchResult {
	return defaultMatcher.Match(input, q)
}

// Rules returns the rule names in evaluation order.
func (m *Matcher) Rules() []string {
	names := make([]string, len(m.rules))
	for i, r := range m.rules {
		names[i] = r.Name
	}
	return names
}

// Match returns the result of the first rule that resolves to an option.
// It never fails: a nil question, a question without options or blank input
// produce domain.NoMatch().
func (m *Matcher) Match(input string, q *domain.Question) domain.MatchResult {
	if q == nil || len(q.Options) == 0 || strings.TrimSpace(input) == "" {
		return domain.NoMatch()
	}

	in := NewInput(input)
	for _, r := range m.rules {
		idx, ok := r.Resolve(in, q)
		if !ok || idx < 0 || idx >= len(q.Options) {
			continue
		}
		return domain.MatchResult{
			Matched:    true,
			OptionID:   q.Options[idx].ID,
			Confidence: r.Confidence,
			Rule:       r.Name,
		}
	}
	return domain.NoMatch()
}

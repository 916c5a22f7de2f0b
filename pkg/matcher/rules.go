package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/adwizard/pkg/domain"
)

// Rule names, in default evaluation order.
const (
	RuleExactLabel          = "exact-label"
	RuleExactID             = "exact-id"
	RuleOrdinal             = "ordinal"
	RuleLetter              = "letter"
	RuleConfirmation        = "confirmation"
	RuleCustom              = "custom"
	RuleLabelOverlap        = "label-overlap"
	RuleDescriptionKeywords = "description-keywords"
	RuleFuzzyToken          = "fuzzy-token"
)

// DefaultRules returns the standard cascade. The slice is freshly allocated so
// callers may reorder or extend it before passing it to New.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleExactLabel, Confidence: domain.ConfidenceHigh, Resolve: exactLabel},
		{Name: RuleExactID, Confidence: domain.ConfidenceHigh, Resolve: exactID},
		{Name: RuleOrdinal, Confidence: domain.ConfidenceHigh, Resolve: ordinal},
		{Name: RuleLetter, Confidence: domain.ConfidenceHigh, Resolve: letter},
		{Name: RuleConfirmation, Confidence: domain.ConfidenceHigh, Resolve: confirmation},
		{Name: RuleCustom, Confidence: domain.ConfidenceHigh, Resolve: custom},
		{Name: RuleLabelOverlap, Confidence: domain.ConfidenceMedium, Resolve: labelOverlap},
		{Name: RuleDescriptionKeywords, Confidence: domain.ConfidenceMedium, Resolve: descriptionKeywords},
		{Name: RuleFuzzyToken, Confidence: domain.ConfidenceLow, Resolve: fuzzyToken},
	}
}

func exactLabel(in Input, q *domain.Question) (int, bool) {
	for i, o := range q.Options {
		if Normalize(o.Label) == in.Normalized {
			return i, true
		}
	}
	return -1, false
}

func exactID(in Input, q *domain.Question) (int, bool) {
	candidate := strings.ReplaceAll(in.Normalized, " ", "-")
	for i, o := range q.Options {
		if strings.ToLower(strings.TrimSpace(o.ID)) == candidate {
			return i, true
		}
	}
	return -1, false
}

var ordinalWords = []string{"first", "second", "third", "fourth", "fifth", "sixth", "seventh", "eighth"}

var ordinalSuffixes = []string{"st", "nd", "rd", "th", "th", "th", "th", "th"}

// ordinalPatterns[i] recognizes references to position i.
var ordinalPatterns = buildOrdinalPatterns()

func buildOrdinalPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(ordinalWords))
	for i, word := range ordinalWords {
		n := i + 1
		patterns[i] = regexp.MustCompile(fmt.Sprintf(
			`\b(?:%s|%d%s)\b|\b(?:option|number|choice|no\.?)\s*#?\s*%d\b|(?:^|\s)#%d\b|^%d$`,
			word, n, ordinalSuffixes[i], n, n, n,
		))
	}
	return patterns
}

func ordinal(in Input, q *domain.Question) (int, bool) {
	for i, re := range ordinalPatterns {
		if re.MatchString(in.Normalized) {
			if i < len(q.Options) {
				return i, true
			}
			return -1, false
		}
	}
	return -1, false
}

var reLetter = regexp.MustCompile(`^(?:(?:option|choice|script|avatar|template|style|version|variant|letter)\s+)?([a-h])$`)

func letter(in Input, q *domain.Question) (int, bool) {
	m := reLetter.FindStringSubmatch(in.Normalized)
	if m == nil {
		return -1, false
	}
	idx := int(m[1][0] - 'a')
	if idx >= len(q.Options) {
		return -1, false
	}
	return idx, true
}

// confirmationSet is the phrase pair attached to one sentinel question.
type confirmationSet struct {
	affirmative *regexp.Regexp
	negative    *regexp.Regexp
	// option id fragments for each side. A side with no matching option does
	// not resolve, so "retry" never lands on a lone "change" option.
	affirmativeIDs []string
	negativeIDs    []string
}

var confirmationSets = map[string]confirmationSet{
	domain.QuestionContinueOrChange: {
		affirmative:    regexp.MustCompile(`\b(?:yes|yeah|yep|sure|ok|okay|continue|proceed|go ahead|keep going|retry|try again|sounds good|do it)\b`),
		negative:       regexp.MustCompile(`\b(?:no|nope|nah|change|different|something else|start over|switch|another)\b`),
		affirmativeIDs: []string{"continue", "retry", "yes"},
		negativeIDs:    []string{"change", "no"},
	},
	domain.QuestionPublishOrPreview: {
		affirmative:    regexp.MustCompile(`\b(?:yes|yeah|yep|sure|ok|okay|publish|go live|launch|ship it|post it|looks good)\b`),
		negative:       regexp.MustCompile(`\b(?:no|nope|not yet|preview|wait|hold on|let me see|show me)\b`),
		affirmativeIDs: []string{"publish", "yes"},
		negativeIDs:    []string{"preview", "no"},
	},
}

func confirmation(in Input, q *domain.Question) (int, bool) {
	set, ok := confirmationSets[q.ID]
	if !ok {
		return -1, false
	}
	// Negative first: "no, don't publish" must not resolve to publish.
	if set.negative.MatchString(in.Normalized) {
		return optionByIDFragment(q, set.negativeIDs)
	}
	if set.affirmative.MatchString(in.Normalized) {
		return optionByIDFragment(q, set.affirmativeIDs)
	}
	return -1, false
}

func optionByIDFragment(q *domain.Question, fragments []string) (int, bool) {
	for _, frag := range fragments {
		for i, o := range q.Options {
			if strings.Contains(strings.ToLower(o.ID), frag) {
				return i, true
			}
		}
	}
	return -1, false
}

var reCustom = regexp.MustCompile(`\b(?:my own|i'll provide|i will provide|i'll write|i will write|i'll upload|i will upload|use mine|i have one|custom|write it myself|do it myself)\b`)

func custom(in Input, q *domain.Question) (int, bool) {
	if !reCustom.MatchString(in.Normalized) {
		return -1, false
	}
	for i, o := range q.Options {
		if strings.Contains(strings.ToLower(o.ID), "custom") {
			return i, true
		}
	}
	return -1, false
}

func labelOverlap(in Input, q *domain.Question) (int, bool) {
	for i, o := range q.Options {
		labelTokens := Tokenize(Normalize(o.Label))
		if len(labelTokens) == 0 {
			continue
		}
		shared := 0
		for _, t := range uniqueTokens(o.Label, 3) {
			if in.HasToken(t) {
				shared++
			}
		}
		if shared >= 1 && shared*2 >= len(labelTokens) {
			return i, true
		}
	}
	return -1, false
}

func descriptionKeywords(in Input, q *domain.Question) (int, bool) {
	for i, o := range q.Options {
		if o.Description == "" {
			continue
		}
		hits := 0
		for _, t := range uniqueTokens(o.Description, 4) {
			if in.HasToken(t) {
				hits++
			}
		}
		if hits >= 2 {
			return i, true
		}
	}
	return -1, false
}

func fuzzyToken(in Input, q *domain.Question) (int, bool) {
	for i, o := range q.Options {
		for _, t := range uniqueTokens(o.Label, 4) {
			if strings.Contains(in.Normalized, t) {
				return i, true
			}
		}
	}
	return -1, false
}

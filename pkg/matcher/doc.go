// Package matcher resolves free-form user replies to one of the options of the
// active question.
//
// Matching is an ordered cascade of rules. The first rule that resolves wins and
// there is no scoring across rules. Within a rule the first option in the
// question's declared order wins, so reordering options can change the result
// for ambiguous phrases.
//
// Usage:
//
//	res := matcher.Match("the second one", q)
//	if res.Matched && res.Confidence == domain.ConfidenceHigh {
//		// accept res.OptionID
//	}
//
// Callers that accept pasted links should check LooksLikeURL first so a URL is
// never fuzzily matched to an unrelated option.
package matcher

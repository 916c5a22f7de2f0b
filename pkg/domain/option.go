package domain

import "encoding/json"

// Option is one selectable choice within a Question.
// ID is the stable identifier returned to callers; Label and Description are free text
// used for matching.
type Option struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id"`
	Label       string `json:"label" yaml:"label" mapstructure:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
}

// Question is the prompt currently awaiting user input.
// Options order matters: ordinal and letter references resolve positionally.
type Question struct {
	ID      string   `json:"id"`
	Options []Option `json:"options"`
}

// Confidence is the coarse certainty tier of a match.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// MatchResult is the output of one matching attempt.
type MatchResult struct {
	Matched    bool       `json:"matched"`
	OptionID   string     `json:"-"`
	Confidence Confidence `json:"confidence"`

	// Rule names the matcher rule that produced the result (empty when nothing matched).
	Rule string `json:"rule,omitempty"`
}

// NoMatch is the result returned whenever no rule applies.
func NoMatch() MatchResult {
	return MatchResult{Matched: false, Confidence: ConfidenceLow}
}

type matchResultJSON struct {
	Matched    bool       `json:"matched"`
	OptionID   *string    `json:"option_id"`
	Confidence Confidence `json:"confidence"`
	Rule       string     `json:"rule,omitempty"`
}

// MarshalJSON renders an empty OptionID as null.
func (m MatchResult) MarshalJSON() ([]byte, error) {
	out := matchResultJSON{Matched: m.Matched, Confidence: m.Confidence, Rule: m.Rule}
	if m.OptionID != "" {
		id := m.OptionID
		out.OptionID = &id
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts option_id as a string or null.
func (m *MatchResult) UnmarshalJSON(data []byte) error {
	var in matchResultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	m.Matched = in.Matched
	m.Confidence = in.Confidence
	m.Rule = in.Rule
	m.OptionID = ""
	if in.OptionID != nil {
		m.OptionID = *in.OptionID
	}
	return nil
}

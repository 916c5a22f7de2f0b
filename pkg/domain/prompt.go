package domain

// Sentinel question ids for which the matcher enables confirmation phrases.
const (
	QuestionTemplate         = "template"
	QuestionContinueOrChange = "continue-or-change"
	QuestionPublishOrPreview = "publish-or-preview"
)

// Prompt is what a front-end should ask next.
type Prompt struct {
	Message  string           `json:"message"`
	Question *Question        `json:"question,omitempty"`
	Input    *InputDefinition `json:"input,omitempty"`
	Optional bool             `json:"optional,omitempty"`
}

package flow

import (
	"context"
	"fmt"

	"github.com/aretw0/adwizard/pkg/domain"
)

// Option ids of the sentinel confirmation questions.
const (
	OptionContinue = "continue"
	OptionChange   = "change"
	OptionPublish  = "publish"
	OptionPreview  = "preview"
)

// TemplateQuestion builds the template-selection question from the catalog.
// The free-form shortcut is always offered last.
func (m *Machine) TemplateQuestion(ctx context.Context) (*domain.Question, error) {
	templates, err := m.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	q := &domain.Question{ID: domain.QuestionTemplate}
	hasFreeform := false
	for i := range templates {
		q.Options = append(q.Options, templates[i].AsOption())
		hasFreeform = hasFreeform || templates[i].ID == domain.FreeformTemplateID
	}
	if !hasFreeform {
		q.Options = append(q.Options, domain.FreeformTemplate().AsOption())
	}
	return q, nil
}

// NextPrompt describes what the user should be asked in the session's current step.
func (m *Machine) NextPrompt(ctx context.Context, s *domain.Session) (*domain.Prompt, error) {
	switch s.CanvasState {
	case domain.StateTemplateSelection:
		q, err := m.TemplateQuestion(ctx)
		if err != nil {
			return nil, err
		}
		return &domain.Prompt{Message: "What would you like to create?", Question: q}, nil

	case domain.StateInputCollection:
		return InputPrompt(s), nil

	case domain.StateGenerating:
		return &domain.Prompt{Message: "Generating your creative. This can take a minute."}, nil

	case domain.StateResult:
		return &domain.Prompt{
			Message:  fmt.Sprintf("Your creative is ready (%d output%s). Publish it now or keep previewing?", len(s.Outputs), plural(len(s.Outputs))),
			Question: PublishOrPreviewQuestion(),
		}, nil

	case domain.StateError:
		msg := s.Error
		if msg == "" {
			msg = "Generation failed."
		}
		if s.Retryable {
			msg += " Try again, or change your choices?"
		} else {
			msg += " You can start over with a different template."
		}
		return &domain.Prompt{Message: msg, Question: ContinueOrChangeQuestion(s.Retryable)}, nil
	}
	return &domain.Prompt{}, nil
}

// InputPrompt describes the pending input of a session in input collection.
func InputPrompt(s *domain.Session) *domain.Prompt {
	if s.Template == nil || s.PendingInputID == "" {
		return &domain.Prompt{Message: "Ready to generate."}
	}
	def, ok := s.Template.Input(s.PendingInputID)
	if !ok {
		return &domain.Prompt{Message: "Ready to generate."}
	}

	p := &domain.Prompt{Input: &def, Optional: !def.Required}
	if def.HasOptions() {
		p.Question = &domain.Question{ID: def.ID, Options: def.Options}
	}
	switch {
	case def.Required && def.Type == domain.InputImage:
		p.Message = fmt.Sprintf("Please upload the %s (or paste a link to it).", lower(def.Label))
	case def.Required:
		p.Message = fmt.Sprintf("Please provide the %s.", lower(def.Label))
	default:
		p.Message = fmt.Sprintf("Would you like to add %s? You can also skip it.", lower(def.Label))
	}
	return p
}

// ContinueOrChangeQuestion is asked after a failed generation.
func ContinueOrChangeQuestion(retryable bool) *domain.Question {
	q := &domain.Question{ID: domain.QuestionContinueOrChange}
	if retryable {
		q.Options = append(q.Options, domain.Option{ID: OptionContinue, Label: "Try again"})
	}
	q.Options = append(q.Options, domain.Option{ID: OptionChange, Label: "Start over", Description: "Pick a different template"})
	return q
}

// PublishOrPreviewQuestion is asked once outputs are ready.
func PublishOrPreviewQuestion() *domain.Question {
	return &domain.Question{
		ID: domain.QuestionPublishOrPreview,
		Options: []domain.Option{
			{ID: OptionPublish, Label: "Publish"},
			{ID: OptionPreview, Label: "Keep previewing"},
		},
	}
}

func lower(s string) string {
	if s == "" {
		return "value"
	}
	r := []rune(s)
	if len(r) > 1 && r[1] >= 'A' && r[1] <= 'Z' {
		return s
	}
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] += 'a' - 'A'
	}
	return string(r)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

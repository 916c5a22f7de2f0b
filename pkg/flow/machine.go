package flow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/ports"
	"github.com/google/uuid"
)

// Transition describes the outcome of one operation.
type Transition struct {
	Changed bool               `json:"changed"`
	From    domain.CanvasState `json:"from"`
	To      domain.CanvasState `json:"to"`

	// GenerationID is set when the call moved the session into generating.
	// The caller is expected to launch exactly one generation run for it.
	GenerationID string `json:"generation_id,omitempty"`
}

// Entered reports whether the transition moved the session into state.
func (t Transition) Entered(state domain.CanvasState) bool {
	return t.Changed && t.From != state && t.To == state
}

// Machine drives sessions through the wizard steps.
type Machine struct {
	catalog ports.TemplateCatalog
	newID   func() string
}

// Option configures the Machine.
type Option func(*Machine)

// WithIDGenerator overrides how generation run ids are produced.
func WithIDGenerator(fn func() string) Option {
	return func(m *Machine) {
		m.newID = fn
	}
}

// New creates a Machine resolving templates through catalog.
func New(catalog ports.TemplateCatalog, opts ...Option) *Machine {
	m := &Machine{
		catalog: catalog,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func noop(s *domain.Session) Transition {
	return Transition{From: s.CanvasState, To: s.CanvasState}
}

// SelectTemplate picks the template for a session in template selection.
// Unknown ids are a no-op; only catalog failures are returned as errors.
func (m *Machine) SelectTemplate(ctx context.Context, s *domain.Session, templateID string) (Transition, error) {
	if s.CanvasState != domain.StateTemplateSelection {
		return noop(s), nil
	}

	var tmpl *domain.Template
	if templateID == domain.FreeformTemplateID {
		tmpl = domain.FreeformTemplate()
	} else {
		var err error
		tmpl, err = m.catalog.Get(ctx, templateID)
		if errors.Is(err, domain.ErrTemplateNotFound) {
			return noop(s), nil
		}
		if err != nil {
			return noop(s), fmt.Errorf("failed to load template %s: %w", templateID, err)
		}
	}

	from := s.CanvasState
	s.Template = tmpl
	s.Collected = []domain.CollectedInput{}
	s.Skipped = nil
	s.Outputs = nil
	s.Error = ""
	s.Retryable = false
	s.Published = false
	s.CanvasState = domain.StateInputCollection
	s.PendingInputID = ""

	// A chosen template always passes through input collection. A template
	// without inputs waits there for an explicit StartGeneration.
	t := Transition{Changed: true, From: from}
	if len(s.Template.Inputs()) > 0 {
		m.advance(s, &t)
	}
	t.To = s.CanvasState
	return t, nil
}

// StartFreeform is the shortcut from template selection straight to generation
// with a single free-form prompt.
func (m *Machine) StartFreeform(s *domain.Session, prompt string) Transition {
	prompt = strings.TrimSpace(prompt)
	if s.CanvasState != domain.StateTemplateSelection || prompt == "" {
		return noop(s)
	}

	from := s.CanvasState
	s.Template = domain.FreeformTemplate()
	s.Collected = []domain.CollectedInput{{
		InputID: domain.FreeformInputID,
		Type:    domain.InputText,
		Value:   domain.TextValue(prompt),
	}}
	s.Skipped = nil

	t := Transition{Changed: true, From: from}
	m.enterGenerating(s, &t)
	t.To = s.CanvasState
	return t
}

// ProvideInput records a value for one of the template's inputs.
// A later value for the same id replaces the earlier one, and providing a value
// for a skipped optional input withdraws the skip.
func (m *Machine) ProvideInput(s *domain.Session, inputID string, value domain.InputValue) Transition {
	if s.CanvasState != domain.StateInputCollection || s.Template == nil || value.IsZero() {
		return noop(s)
	}
	def, ok := s.Template.Input(inputID)
	if !ok {
		return noop(s)
	}

	entry := domain.CollectedInput{InputID: def.ID, Type: def.Type, Value: value}
	if i := slices.IndexFunc(s.Collected, func(c domain.CollectedInput) bool { return c.InputID == def.ID }); i >= 0 {
		s.Collected[i] = entry
	} else {
		s.Collected = append(s.Collected, entry)
	}
	s.Skipped = slices.DeleteFunc(s.Skipped, func(id string) bool { return id == def.ID })

	t := Transition{Changed: true, From: s.CanvasState}
	m.advance(s, &t)
	t.To = s.CanvasState
	return t
}

// SkipInput declines an optional input. Required inputs cannot be skipped, and
// skipping an input that already has a value or was already skipped does nothing.
func (m *Machine) SkipInput(s *domain.Session, inputID string) Transition {
	if s.CanvasState != domain.StateInputCollection || s.Template == nil {
		return noop(s)
	}
	def, ok := s.Template.Input(inputID)
	if !ok || def.Required || s.IsSkipped(def.ID) {
		return noop(s)
	}
	if _, collected := s.CollectedInput(def.ID); collected {
		return noop(s)
	}

	s.Skipped = append(s.Skipped, def.ID)

	t := Transition{Changed: true, From: s.CanvasState}
	m.advance(s, &t)
	t.To = s.CanvasState
	return t
}

// StartGeneration moves to generating once every required input is collected,
// or retries after a retryable failure. It is a no-op while already generating.
func (m *Machine) StartGeneration(s *domain.Session) Transition {
	switch s.CanvasState {
	case domain.StateInputCollection:
	case domain.StateError:
		if !s.Retryable {
			return noop(s)
		}
	default:
		return noop(s)
	}
	if s.Template == nil || len(RemainingRequiredInputs(s)) > 0 {
		return noop(s)
	}

	t := Transition{Changed: true, From: s.CanvasState}
	m.enterGenerating(s, &t)
	t.To = s.CanvasState
	return t
}

// CompleteGeneration records outputs for the run identified by runID.
// Completions for any other run (for example one superseded by Reset) are discarded.
func (m *Machine) CompleteGeneration(s *domain.Session, runID string, outputs []domain.Creative) Transition {
	if s.CanvasState != domain.StateGenerating || runID == "" || s.GenerationID != runID {
		return noop(s)
	}
	s.Outputs = append([]domain.Creative(nil), outputs...)
	s.Error = ""
	s.Retryable = false
	s.CanvasState = domain.StateResult
	return Transition{Changed: true, From: domain.StateGenerating, To: domain.StateResult}
}

// FailGeneration moves the run identified by runID into the error state.
func (m *Machine) FailGeneration(s *domain.Session, runID, message string, retryable bool) Transition {
	if s.CanvasState != domain.StateGenerating || runID == "" || s.GenerationID != runID {
		return noop(s)
	}
	s.Error = message
	s.Retryable = retryable
	s.CanvasState = domain.StateError
	return Transition{Changed: true, From: domain.StateGenerating, To: domain.StateError}
}

// Publish marks the generated creative as published.
func (m *Machine) Publish(s *domain.Session) Transition {
	if s.CanvasState != domain.StateResult || s.Published {
		return noop(s)
	}
	s.Published = true
	return Transition{Changed: true, From: s.CanvasState, To: s.CanvasState}
}

// Reset clears the session and returns it to template selection. Valid from any state.
func (m *Machine) Reset(s *domain.Session) Transition {
	from := s.CanvasState
	s.CanvasState = domain.StateTemplateSelection
	s.Template = nil
	s.Collected = []domain.CollectedInput{}
	s.Skipped = nil
	s.PendingInputID = ""
	s.GenerationID = ""
	s.Outputs = nil
	s.Error = ""
	s.Retryable = false
	s.Product = nil
	s.Published = false
	return Transition{Changed: true, From: from, To: s.CanvasState}
}

// advance picks what to ask next: the first uncollected required input, then the
// first optional input that is neither collected nor skipped, and otherwise
// starts generation.
func (m *Machine) advance(s *domain.Session, t *Transition) {
	if remaining := RemainingRequiredInputs(s); len(remaining) > 0 {
		s.PendingInputID = remaining[0].ID
		return
	}
	if next, ok := nextOptional(s); ok {
		s.PendingInputID = next.ID
		return
	}
	m.enterGenerating(s, t)
}

func (m *Machine) enterGenerating(s *domain.Session, t *Transition) {
	if len(RemainingRequiredInputs(s)) > 0 {
		return
	}
	s.CanvasState = domain.StateGenerating
	s.PendingInputID = ""
	s.GenerationID = m.newID()
	s.Outputs = nil
	s.Error = ""
	s.Retryable = false
	s.Published = false
	t.GenerationID = s.GenerationID
}

func nextOptional(s *domain.Session) (domain.InputDefinition, bool) {
	for _, in := range s.Template.OptionalInputs {
		if _, ok := s.CollectedInput(in.ID); ok {
			continue
		}
		if s.IsSkipped(in.ID) {
			continue
		}
		return in, true
	}
	return domain.InputDefinition{}, false
}

// RemainingRequiredInputs lists required inputs without a collected value, in declared order.
func RemainingRequiredInputs(s *domain.Session) []domain.InputDefinition {
	if s == nil || s.Template == nil {
		return nil
	}
	var out []domain.InputDefinition
	for _, in := range s.Template.RequiredInputs {
		if _, ok := s.CollectedInput(in.ID); !ok {
			in.Required = true
			out = append(out, in)
		}
	}
	return out
}

// AllInputsCollected reports whether every input of the template, required and
// optional, has either a value or an explicit skip.
func AllInputsCollected(s *domain.Session) bool {
	if s == nil || s.Template == nil {
		return false
	}
	if len(RemainingRequiredInputs(s)) > 0 {
		return false
	}
	_, pending := nextOptional(s)
	return !pending
}

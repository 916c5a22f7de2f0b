package domain

import "time"

// CanvasState is the step of the wizard a session is in.
type CanvasState string

const (
	StateTemplateSelection CanvasState = "template-selection"
	StateInputCollection   CanvasState = "input-collection"
	StateGenerating        CanvasState = "generating"
	StateResult            CanvasState = "result"
	StateError             CanvasState = "error"
)

// Session represents the current snapshot of one creation flow.
type Session struct {
	ID string `json:"id"`

	// CanvasState is the active wizard step.
	CanvasState CanvasState `json:"canvas_state"`

	// Template is the selected template (nil during template selection).
	Template *Template `json:"template,omitempty"`

	// Collected holds at most one entry per input id, in the order first supplied.
	Collected []CollectedInput `json:"collected_inputs"`

	// Skipped lists optional input ids the user explicitly declined.
	Skipped []string `json:"skipped_inputs,omitempty"`

	// PendingInputID is the input currently being requested or offered.
	PendingInputID string `json:"pending_input_id,omitempty"`

	// GenerationID identifies the in-flight (or last) generation run.
	GenerationID string `json:"generation_id,omitempty"`

	Outputs   []Creative       `json:"outputs,omitempty"`
	Error     string           `json:"error,omitempty"`
	Retryable bool             `json:"retryable,omitempty"`
	Product   *ProductAnalysis `json:"product,omitempty"`
	Published bool             `json:"published,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed carries an encrypted copy of the whole session when a store
	// middleware persists an opaque envelope instead of the plain fields.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a clean session in template selection.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		CanvasState: StateTemplateSelection,
		Collected:   []CollectedInput{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CollectedInput returns the collected entry for an input id.
func (s *Session) CollectedInput(inputID string) (CollectedInput, bool) {
	for _, c := range s.Collected {
		if c.InputID == inputID {
			return c, true
		}
	}
	return CollectedInput{}, false
}

// IsSkipped reports whether the input was explicitly skipped.
func (s *Session) IsSkipped(inputID string) bool {
	for _, id := range s.Skipped {
		if id == inputID {
			return true
		}
	}
	return false
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.Template != nil {
		t := *s.Template
		t.RequiredInputs = append([]InputDefinition(nil), s.Template.RequiredInputs...)
		t.OptionalInputs = append([]InputDefinition(nil), s.Template.OptionalInputs...)
		c.Template = &t
	}
	c.Collected = make([]CollectedInput, len(s.Collected))
	for i, in := range s.Collected {
		c.Collected[i] = in
		if in.Value.Blob != nil {
			b := *in.Value.Blob
			c.Collected[i].Value.Blob = &b
		}
	}
	if s.Skipped != nil {
		c.Skipped = append([]string(nil), s.Skipped...)
	}
	if s.Outputs != nil {
		c.Outputs = append([]Creative(nil), s.Outputs...)
	}
	if s.Product != nil {
		p := *s.Product
		p.Features = append([]string(nil), s.Product.Features...)
		c.Product = &p
	}
	return &c
}

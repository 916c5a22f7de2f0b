package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CanvasState    *CanvasState `json:"canvas_state,omitempty"`
	TemplateID     *string      `json:"template_id,omitempty"`
	PendingInputID *string      `json:"pending_input_id,omitempty"`

	// Inputs contains added or replaced collected inputs keyed by input id.
	// Removed inputs are present with a nil value.
	Inputs map[string]*InputValue `json:"inputs,omitempty"`

	// Skipped contains input ids newly marked as skipped.
	Skipped []string `json:"skipped,omitempty"`

	Outputs   []Creative `json:"outputs,omitempty"`
	Error     *string    `json:"error,omitempty"`
	Published *bool      `json:"published,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil || oldSession.CanvasState != newSession.CanvasState {
		diff.CanvasState = &newSession.CanvasState
	}
	if oldTemplate, newTemplate := templateID(oldSession), templateID(newSession); oldSession == nil || oldTemplate != newTemplate {
		diff.TemplateID = &newTemplate
	}
	if oldSession == nil || oldSession.PendingInputID != newSession.PendingInputID {
		diff.PendingInputID = &newSession.PendingInputID
	}

	diff.Inputs = diffInputs(oldSession, newSession)
	diff.Skipped = diffSkipped(oldSession, newSession)

	if oldSession == nil || !reflect.DeepEqual(oldSession.Outputs, newSession.Outputs) {
		if len(newSession.Outputs) > 0 {
			diff.Outputs = newSession.Outputs
		}
	}
	if oldSession == nil || oldSession.Error != newSession.Error {
		diff.Error = &newSession.Error
	}
	if oldSession == nil || oldSession.Published != newSession.Published {
		diff.Published = &newSession.Published
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func templateID(s *Session) string {
	if s == nil || s.Template == nil {
		return ""
	}
	return s.Template.ID
}

func diffInputs(oldSession, newSession *Session) map[string]*InputValue {
	delta := make(map[string]*InputValue)

	for _, in := range newSession.Collected {
		val := in.Value
		if oldSession == nil {
			delta[in.InputID] = &val
			continue
		}
		prev, ok := oldSession.CollectedInput(in.InputID)
		if !ok || !reflect.DeepEqual(prev.Value, in.Value) {
			delta[in.InputID] = &val
		}
	}

	if oldSession != nil {
		for _, in := range oldSession.Collected {
			if _, ok := newSession.CollectedInput(in.InputID); !ok {
				delta[in.InputID] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffSkipped(oldSession, newSession *Session) []string {
	var added []string
	for _, id := range newSession.Skipped {
		if oldSession == nil || !oldSession.IsSkipped(id) {
			added = append(added, id)
		}
	}
	return added
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.CanvasState == nil &&
		d.TemplateID == nil &&
		d.PendingInputID == nil &&
		len(d.Inputs) == 0 &&
		len(d.Skipped) == 0 &&
		len(d.Outputs) == 0 &&
		d.Error == nil &&
		d.Published == nil
}

package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition       EventType = "transition"
	EventMatch            EventType = "match"
	EventGenerationStart  EventType = "generation_start"
	EventGenerationFinish EventType = "generation_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TransitionEvent is emitted when a session changes canvas state.
type TransitionEvent struct {
	EventBase
	From CanvasState `json:"from"`
	To   CanvasState `json:"to"`
}

// MatchEvent is emitted after the matcher resolves a reply.
type MatchEvent struct {
	EventBase
	QuestionID string      `json:"question_id"`
	Result     MatchResult `json:"result"`
}

// GenerationEvent represents one generation run.
type GenerationEvent struct {
	EventBase
	GenerationID string        `json:"generation_id"`
	TemplateID   string        `json:"template_id"`
	Outputs      int           `json:"outputs,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Err          string        `json:"error,omitempty"`
}

// LifecycleHooks defines callbacks for wizard observability.
type LifecycleHooks struct {
	OnTransition       func(context.Context, *TransitionEvent)
	OnMatch            func(context.Context, *MatchEvent)
	OnGenerationStart  func(context.Context, *GenerationEvent)
	OnGenerationFinish func(context.Context, *GenerationEvent)
}

// Merge combines two hook sets; both are invoked, h first.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTransition:       chain(h.OnTransition, other.OnTransition),
		OnMatch:            chain(h.OnMatch, other.OnMatch),
		OnGenerationStart:  chain(h.OnGenerationStart, other.OnGenerationStart),
		OnGenerationFinish: chain(h.OnGenerationFinish, other.OnGenerationFinish),
	}
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}

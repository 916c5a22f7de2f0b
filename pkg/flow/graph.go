package flow

import "github.com/aretw0/adwizard/pkg/domain"

// Edge is one canvas state change a Machine operation can make.
type Edge struct {
	From domain.CanvasState
	To   domain.CanvasState
	Op   string
}

// States lists the canvas states in wizard order.
var States = []domain.CanvasState{
	domain.StateTemplateSelection,
	domain.StateInputCollection,
	domain.StateGenerating,
	domain.StateResult,
	domain.StateError,
}

// Edges is the transition table implemented by Machine. Reset, valid from every
// state, is listed once per source state.
var Edges = []Edge{
	{domain.StateTemplateSelection, domain.StateInputCollection, "select template"},
	{domain.StateTemplateSelection, domain.StateGenerating, "free-form prompt"},
	{domain.StateInputCollection, domain.StateInputCollection, "provide / skip input"},
	{domain.StateInputCollection, domain.StateGenerating, "all inputs collected"},
	{domain.StateGenerating, domain.StateResult, "complete"},
	{domain.StateGenerating, domain.StateError, "fail / timeout"},
	{domain.StateError, domain.StateGenerating, "retry"},
	{domain.StateResult, domain.StateResult, "publish"},
	{domain.StateInputCollection, domain.StateTemplateSelection, "reset"},
	{domain.StateGenerating, domain.StateTemplateSelection, "reset"},
	{domain.StateResult, domain.StateTemplateSelection, "reset"},
	{domain.StateError, domain.StateTemplateSelection, "reset"},
}

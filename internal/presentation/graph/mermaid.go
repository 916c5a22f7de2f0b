package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/flow"
)

// Overlay marks where one session is on the graph.
type Overlay struct {
	CurrentState domain.CanvasState

	// Template adds a subgraph of its inputs, styled by the session's progress.
	Template  *domain.Template
	Collected []string
	Skipped   []string
	Pending   string
}

// OverlayFor builds the overlay of a session.
func OverlayFor(s *domain.Session) *Overlay {
	o := &Overlay{
		CurrentState: s.CanvasState,
		Template:     s.Template,
		Skipped:      s.Skipped,
		Pending:      s.PendingInputID,
	}
	for _, c := range s.Collected {
		o.Collected = append(o.Collected, c.InputID)
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the wizard's canvas states.
// It applies semantic styling:
// - Template selection: ((Circle))
// - Generating: [[Subroutine]]
// - Input collection: [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, state := range flow.States {
		opener, closer := "[", "]"
		switch state {
		case domain.StateTemplateSelection:
			opener, closer = "((", "))"
		case domain.StateGenerating:
			opener, closer = "[[", "]]"
		case domain.StateInputCollection:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(string(state)), opener, state, closer)
	}

	for _, e := range flow.Edges {
		arrow := fmt.Sprintf("-- \"%s\" -->", strings.ReplaceAll(e.Op, "\"", "'"))
		if e.Op == "reset" {
			arrow = "-. reset .->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(string(e.From)), arrow, sanitizeMermaidID(string(e.To)))
	}

	if overlay == nil {
		return sb.String()
	}

	if t := overlay.Template; t != nil {
		fmt.Fprintf(&sb, "\n    subgraph %s[\"%s\"]\n", sanitizeMermaidID("tpl/"+t.ID), t.Name)
		prev := ""
		for _, in := range t.Inputs() {
			id := sanitizeMermaidID("in/" + in.ID)
			label := in.Label
			if !in.Required {
				label += " (optional)"
			}
			fmt.Fprintf(&sb, "        %s[\"%s\"]\n", id, label)
			if prev != "" {
				fmt.Fprintf(&sb, "        %s --> %s\n", prev, id)
			}
			prev = id
		}
		sb.WriteString("    end\n")
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef skipped fill:#eeeeee,stroke:#9e9e9e,stroke-dasharray:4,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	if overlay.Template != nil {
		for _, id := range overlay.Collected {
			fmt.Fprintf(&sb, "    class %s visited;\n", sanitizeMermaidID("in/"+id))
		}
		for _, id := range overlay.Skipped {
			fmt.Fprintf(&sb, "    class %s skipped;\n", sanitizeMermaidID("in/"+id))
		}
		if overlay.Pending != "" && overlay.CurrentState == domain.StateInputCollection {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID("in/"+overlay.Pending))
		}
	}
	if overlay.CurrentState != "" {
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(string(overlay.CurrentState)))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}

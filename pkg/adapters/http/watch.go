package http

import (
	"encoding/json"
	"strings"

	"github.com/aretw0/adwizard/pkg/domain"
)

// watchFilter selects which diffs reach an SSE client. Empty means all.
type watchFilter map[string]struct{}

func parseWatch(s string) watchFilter {
	f := watchFilter{}
	for _, field := range strings.Split(s, ",") {
		if field = strings.TrimSpace(field); field != "" {
			f[field] = struct{}{}
		}
	}
	return f
}

func (f watchFilter) keep(data []byte) bool {
	if len(f) == 0 {
		return true
	}
	var diff domain.SessionDiff
	if err := json.Unmarshal(data, &diff); err != nil {
		return true
	}
	for field := range f {
		switch field {
		case "state":
			if diff.CanvasState != nil || diff.PendingInputID != nil || diff.TemplateID != nil {
				return true
			}
		case "inputs":
			if len(diff.Inputs) > 0 || len(diff.Skipped) > 0 {
				return true
			}
		case "outputs":
			if len(diff.Outputs) > 0 || diff.Published != nil {
				return true
			}
		case "error":
			if diff.Error != nil {
				return true
			}
		}
	}
	return false
}

package adwizard

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/flow"
	"github.com/aretw0/adwizard/pkg/matcher"
	"github.com/aretw0/adwizard/pkg/sanitize"
)

// freeformMinWords is how long an unmatched reply at template selection must
// be to be taken as a free-form prompt.
const freeformMinWords = 4

var reSkip = regexp.MustCompile(`^(?:skip|skip it|skip this|no|no thanks|nope|none|not now|pass|leave it)$`)

// Reply interprets a chat message in the context of the session's current step.
//
// Links are routed to product ingestion (or become the value of a pending image
// input) instead of the matcher. Other text is matched against the active
// question; only medium and high confidence matches drive a transition.
func (w *Wizard) Reply(ctx context.Context, sessionID, text string) (*Turn, error) {
	clean, err := sanitize.Input(text)
	if err != nil {
		return nil, err
	}
	clean = strings.TrimSpace(clean)

	if clean != "" && matcher.LooksLikeURL(clean) {
		return w.replyURL(ctx, sessionID, matcher.ExtractURL(clean))
	}

	var (
		match   *domain.MatchResult
		clarify string
	)
	tr, before, after, err := w.mutate(ctx, sessionID, func(ctx context.Context, s *domain.Session) (flow.Transition, error) {
		match, clarify = nil, ""
		if clean == "" {
			clarify = "I didn't catch that."
			return flow.Transition{From: s.CanvasState, To: s.CanvasState}, nil
		}
		return w.interpret(ctx, s, clean, &match, &clarify)
	})
	if err != nil {
		return nil, err
	}
	w.afterTransition(ctx, before, after, tr)

	turn, err := w.turn(ctx, after, tr.Changed)
	if err != nil {
		return nil, err
	}
	turn.Match = match
	if clarify != "" {
		turn.Prompt.Message = clarify + " " + turn.Prompt.Message
	}
	return turn, nil
}

func (w *Wizard) interpret(ctx context.Context, s *domain.Session, text string, match **domain.MatchResult, clarify *string) (flow.Transition, error) {
	stay := flow.Transition{From: s.CanvasState, To: s.CanvasState}

	switch s.CanvasState {
	case domain.StateTemplateSelection:
		q, err := w.machine.TemplateQuestion(ctx)
		if err != nil {
			return stay, err
		}
		res := w.matchQuestion(ctx, s.ID, text, q)
		*match = &res
		if accepted(res) {
			return w.machine.SelectTemplate(ctx, s, res.OptionID)
		}
		if len(strings.Fields(text)) >= freeformMinWords {
			return w.machine.StartFreeform(s, text), nil
		}
		*clarify = clarification(res, q)
		return stay, nil

	case domain.StateInputCollection:
		return w.interpretInput(ctx, s, text, match, clarify), nil

	case domain.StateGenerating:
		*clarify = "Hang tight, still working on it."
		return stay, nil

	case domain.StateError:
		q := flow.ContinueOrChangeQuestion(s.Retryable)
		res := w.matchQuestion(ctx, s.ID, text, q)
		*match = &res
		if !accepted(res) {
			*clarify = clarification(res, q)
			return stay, nil
		}
		if res.OptionID == flow.OptionContinue {
			return w.machine.StartGeneration(s), nil
		}
		return w.machine.Reset(s), nil

	case domain.StateResult:
		q := flow.PublishOrPreviewQuestion()
		res := w.matchQuestion(ctx, s.ID, text, q)
		*match = &res
		if !accepted(res) {
			*clarify = clarification(res, q)
			return stay, nil
		}
		if res.OptionID == flow.OptionPublish {
			return w.machine.Publish(s), nil
		}
		*clarify = "Sure, take your time."
		return stay, nil
	}
	return stay, nil
}

func (w *Wizard) interpretInput(ctx context.Context, s *domain.Session, text string, match **domain.MatchResult, clarify *string) flow.Transition {
	stay := flow.Transition{From: s.CanvasState, To: s.CanvasState}
	if s.Template == nil || s.PendingInputID == "" {
		return w.machine.StartGeneration(s)
	}
	def, ok := s.Template.Input(s.PendingInputID)
	if !ok {
		return stay
	}

	if !def.Required && reSkip.MatchString(matcher.Normalize(text)) {
		return w.machine.SkipInput(s, def.ID)
	}

	if def.HasOptions() {
		q := &domain.Question{ID: def.ID, Options: def.Options}
		res := w.matchQuestion(ctx, s.ID, text, q)
		*match = &res
		if accepted(res) {
			return w.machine.ProvideInput(s, def.ID, domain.TextValue(res.OptionID))
		}
		if def.Type == domain.InputScript || def.Type == domain.InputText {
			return w.machine.ProvideInput(s, def.ID, domain.TextValue(text))
		}
		*clarify = clarification(res, q)
		return stay
	}

	switch def.Type {
	case domain.InputImage, domain.InputAvatar:
		*clarify = fmt.Sprintf("I need a file or a link for the %s.", strings.ToLower(def.Label))
		return stay
	}
	return w.machine.ProvideInput(s, def.ID, domain.TextValue(text))
}

// replyURL handles a pasted link: it fills a pending image input directly, and
// otherwise runs product ingestion and keeps the analysis on the session.
func (w *Wizard) replyURL(ctx context.Context, sessionID, link string) (*Turn, error) {
	current, err := w.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if pending, ok := pendingInput(current); ok && (pending.Type == domain.InputImage || pending.Type == domain.InputAvatar) {
		return w.ProvideInput(ctx, sessionID, pending.ID, domain.BlobValue(domain.BlobRef{URL: link}))
	}

	product, err := w.analyze(ctx, link)
	if err != nil {
		return nil, err
	}

	tr, before, after, err := w.mutate(ctx, sessionID, func(ctx context.Context, s *domain.Session) (flow.Transition, error) {
		s.Product = product
		if pending, ok := pendingInput(s); ok && pending.Type == domain.InputText && product.Description != "" &&
			strings.Contains(pending.ID, "description") {
			return w.machine.ProvideInput(s, pending.ID, domain.TextValue(product.Description)), nil
		}
		return flow.Transition{Changed: true, From: s.CanvasState, To: s.CanvasState}, nil
	})
	if err != nil {
		return nil, err
	}
	w.afterTransition(ctx, before, after, tr)

	turn, err := w.turn(ctx, after, tr.Changed)
	if err != nil {
		return nil, err
	}
	if product.Name != "" {
		turn.Prompt.Message = fmt.Sprintf("Got it, I looked at %s. %s", product.Name, turn.Prompt.Message)
	}
	return turn, nil
}

// analyze runs product ingestion for link. Concurrent pastes of the same link
// share one analyzer call; each caller gets its own copy of the result.
func (w *Wizard) analyze(ctx context.Context, link string) (*domain.ProductAnalysis, error) {
	if w.analyzer == nil {
		return &domain.ProductAnalysis{URL: link}, nil
	}
	v, err, _ := w.flights.Do(link, func() (any, error) {
		return w.analyzer.AnalyzeProduct(ctx, link)
	})
	if err != nil {
		return nil, fmt.Errorf("product analysis failed: %w", err)
	}
	res, _ := v.(*domain.ProductAnalysis)
	if res == nil {
		return &domain.ProductAnalysis{URL: link}, nil
	}
	product := *res
	product.Features = append([]string(nil), product.Features...)
	return &product, nil
}

func (w *Wizard) matchQuestion(ctx context.Context, sessionID, text string, q *domain.Question) domain.MatchResult {
	res := w.matcher.Match(text, q)
	if w.hooks.OnMatch != nil {
		w.hooks.OnMatch(ctx, &domain.MatchEvent{
			EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventMatch, SessionID: sessionID},
			QuestionID: q.ID,
			Result:     res,
		})
	}
	return res
}

func pendingInput(s *domain.Session) (domain.InputDefinition, bool) {
	if s.CanvasState != domain.StateInputCollection || s.Template == nil || s.PendingInputID == "" {
		return domain.InputDefinition{}, false
	}
	return s.Template.Input(s.PendingInputID)
}

// accepted reports whether a match is confident enough to act on.
func accepted(res domain.MatchResult) bool {
	return res.Matched && res.Confidence != domain.ConfidenceLow
}

// clarification asks the user to confirm a weak guess or pick again.
func clarification(res domain.MatchResult, q *domain.Question) string {
	if res.Matched {
		for _, opt := range q.Options {
			if opt.ID == res.OptionID {
				return fmt.Sprintf("Did you mean %q?", opt.Label)
			}
		}
	}
	return "Sorry, I didn't understand which option you meant."
}

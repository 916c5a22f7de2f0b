package adwizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/flow"
	"github.com/aretw0/adwizard/pkg/notify"
)

// launch starts the generation run recorded on s. The machine assigns a fresh
// run id per StartGeneration, so each run id is launched exactly once.
func (w *Wizard) launch(s *domain.Session) {
	sessionID, runID := s.ID, s.GenerationID
	req := domain.GenerationRequest{
		SessionID:       sessionID,
		TemplateID:      s.Template.ID,
		CollectedInputs: append([]domain.CollectedInput(nil), s.Collected...),
	}

	w.runs.Add(1)
	go func() {
		defer w.runs.Done()
		w.generate(sessionID, runID, req)
	}()
}

func (w *Wizard) generate(sessionID, runID string, req domain.GenerationRequest) {
	defer w.signal(sessionID)

	ctx, cancel := context.WithTimeout(w.ctx, w.generationTimeout)
	defer cancel()

	event := &domain.GenerationEvent{
		EventBase:    domain.EventBase{Timestamp: time.Now(), Type: domain.EventGenerationStart, SessionID: sessionID},
		GenerationID: runID,
		TemplateID:   req.TemplateID,
	}
	if w.hooks.OnGenerationStart != nil {
		w.hooks.OnGenerationStart(ctx, event)
	}

	start := time.Now()
	outputs, err := w.call(ctx, req)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s", domain.ErrGenerationTimeout, w.generationTimeout)
	}
	duration := time.Since(start)

	// The run context may already be cancelled; recording the outcome must still happen.
	persistCtx, cancelPersist := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancelPersist()

	tr, before, after, perr := w.mutate(persistCtx, sessionID, func(_ context.Context, s *domain.Session) (flow.Transition, error) {
		if err != nil {
			return w.machine.FailGeneration(s, runID, domain.UserMessage(err), domain.Retryable(err)), nil
		}
		return w.machine.CompleteGeneration(s, runID, outputs), nil
	})
	if perr != nil {
		w.logger.Error("failed to record generation outcome", "session_id", sessionID, "generation_id", runID, "err", perr)
		return
	}
	if !tr.Changed {
		w.logger.Info("discarding stale generation result", "session_id", sessionID, "generation_id", runID)
		return
	}

	event = &domain.GenerationEvent{
		EventBase:    domain.EventBase{Timestamp: time.Now(), Type: domain.EventGenerationFinish, SessionID: sessionID},
		GenerationID: runID,
		TemplateID:   req.TemplateID,
		Outputs:      len(outputs),
		Duration:     duration,
	}
	if err != nil {
		event.Err = err.Error()
	}
	if w.hooks.OnGenerationFinish != nil {
		w.hooks.OnGenerationFinish(persistCtx, event)
	}

	w.afterTransition(persistCtx, before, after, tr)
	w.announce(persistCtx, after, err)
}

type generation struct {
	outputs []domain.Creative
	err     error
}

// call runs the generator but stops waiting once ctx is done, so a generator
// that ignores cancellation cannot hold the session in generating. Its late
// result is dropped.
func (w *Wizard) call(ctx context.Context, req domain.GenerationRequest) ([]domain.Creative, error) {
	done := make(chan generation, 1)
	go func() {
		outputs, err := w.generator.Generate(ctx, req)
		done <- generation{outputs: outputs, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return res.outputs, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (w *Wizard) announce(ctx context.Context, s *domain.Session, genErr error) {
	e := notify.Event{SessionID: s.ID, Kind: notify.KindGenerationComplete}
	if genErr != nil {
		e.Kind = notify.KindGenerationFailed
		e.Title = "Generation failed"
		e.Body = s.Error
	} else {
		e.Title = "Your creative is ready"
		e.Body = fmt.Sprintf("%d output%s generated for %s.", len(s.Outputs), plural(len(s.Outputs)), s.Template.Name)
	}
	if err := w.dispatcher.Notify(ctx, e); err != nil {
		w.logger.Warn("failed to dispatch notification", "session_id", s.ID, "err", err)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

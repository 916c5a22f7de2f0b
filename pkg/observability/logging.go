package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/adwizard/pkg/domain"
)

// LoggingHooks logs every lifecycle event at info level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Info("transition",
				"session_id", e.SessionID,
				"from", e.From,
				"to", e.To,
			)
		},
		OnMatch: func(ctx context.Context, e *domain.MatchEvent) {
			logger.Debug("match",
				"session_id", e.SessionID,
				"question_id", e.QuestionID,
				"matched", e.Result.Matched,
				"option_id", e.Result.OptionID,
				"confidence", e.Result.Confidence,
				"rule", e.Result.Rule,
			)
		},
		OnGenerationStart: func(ctx context.Context, e *domain.GenerationEvent) {
			logger.Info("generation_start",
				"session_id", e.SessionID,
				"generation_id", e.GenerationID,
				"template_id", e.TemplateID,
			)
		},
		OnGenerationFinish: func(ctx context.Context, e *domain.GenerationEvent) {
			if e.Err != "" {
				logger.Warn("generation_finish",
					"session_id", e.SessionID,
					"generation_id", e.GenerationID,
					"duration", e.Duration,
					"err", e.Err,
				)
				return
			}
			logger.Info("generation_finish",
				"session_id", e.SessionID,
				"generation_id", e.GenerationID,
				"outputs", e.Outputs,
				"duration", e.Duration,
			)
		},
	}
}

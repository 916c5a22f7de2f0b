package observability

import (
	"context"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the wizard's Prometheus collectors.
type Metrics struct {
	Matches            *prometheus.CounterVec
	Transitions        *prometheus.CounterVec
	Generations        *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on promhttp.Handler().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Matches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adwizard_matches_total",
				Help: "Replies resolved by the option matcher, by rule and confidence",
			},
			[]string{"rule", "confidence"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adwizard_transitions_total",
				Help: "Canvas state transitions",
			},
			[]string{"from", "to"},
		),
		Generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adwizard_generations_total",
				Help: "Finished generation runs by outcome",
			},
			[]string{"outcome"},
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "adwizard_generation_duration_seconds",
				Help:    "Duration of generation runs",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Matches, m.Transitions, m.Generations, m.GenerationDuration)
	}
	return m
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnMatch: func(ctx context.Context, e *domain.MatchEvent) {
			rule := e.Result.Rule
			if !e.Result.Matched {
				rule = "none"
			}
			m.Matches.WithLabelValues(rule, string(e.Result.Confidence)).Inc()
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnGenerationFinish: func(ctx context.Context, e *domain.GenerationEvent) {
			outcome := "success"
			if e.Err != "" {
				outcome = "failure"
			}
			m.Generations.WithLabelValues(outcome).Inc()
			m.GenerationDuration.Observe(e.Duration.Seconds())
		},
	}
}

// Package generator provides ports.Generator implementations: a timed mock and
// an HTTP client for the hosted creative-generation service.
package generator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/google/uuid"
)

// Mock returns canned creatives after a delay. It counts calls so tests can
// assert how many generation runs actually happened.
type Mock struct {
	// Delay is the base latency; Jitter adds a random extra up to its value.
	Delay  time.Duration
	Jitter time.Duration

	// Err, when set, is returned instead of outputs.
	Err error

	// Outputs, when set, replaces the canned creatives.
	Outputs []domain.Creative

	calls atomic.Int64
}

// NewMock creates a mock with the given base delay.
func NewMock(delay time.Duration) *Mock {
	return &Mock{Delay: delay}
}

// Calls reports how many times Generate was invoked.
func (m *Mock) Calls() int64 {
	return m.calls.Load()
}

// Generate waits for the configured delay (or ctx cancellation) and returns outputs.
func (m *Mock) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Creative, error) {
	m.calls.Add(1)

	wait := m.Delay
	if m.Jitter > 0 {
		wait += time.Duration(rand.Int64N(int64(m.Jitter)))
	}
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Outputs != nil {
		return append([]domain.Creative(nil), m.Outputs...), nil
	}
	return Canned(req), nil
}

// Canned builds placeholder creatives for a request.
func Canned(req domain.GenerationRequest) []domain.Creative {
	prompt := ""
	for _, in := range req.CollectedInputs {
		if in.Value.Text != "" {
			prompt = in.Value.Text
			break
		}
	}

	formats := []struct {
		kind, format  string
		width, height int
	}{
		{"video", "mp4", 1080, 1920},
		{"video", "mp4", 1080, 1080},
		{"image", "png", 1200, 628},
	}
	out := make([]domain.Creative, 0, len(formats))
	for _, f := range formats {
		id := uuid.NewString()
		out = append(out, domain.Creative{
			ID:           id,
			Type:         f.kind,
			URL:          fmt.Sprintf("https://cdn.adwizard.dev/mock/%s/%s.%s", req.TemplateID, id, f.format),
			ThumbnailURL: fmt.Sprintf("https://cdn.adwizard.dev/mock/%s/%s.jpg", req.TemplateID, id),
			Format:       f.format,
			Width:        f.width,
			Height:       f.height,
			Prompt:       prompt,
		})
	}
	return out
}

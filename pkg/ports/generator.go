package ports

import (
	"context"

	"github.com/aretw0/adwizard/pkg/domain"
)

// Generator is the external creative-generation service.
// Implementations should return errors wrapping the domain upstream errors
// (domain.ErrRateLimited, domain.ErrQuotaExhausted) so callers can map them.
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Creative, error)
}

// Analyzer turns a product link into a structured summary.
type Analyzer interface {
	AnalyzeProduct(ctx context.Context, url string) (*domain.ProductAnalysis, error)
}

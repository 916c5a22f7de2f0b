package generator

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/adwizard/internal/upstream"
	"github.com/aretw0/adwizard/pkg/domain"
)

const defaultBase = "https://api.adwizard.dev"

// HTTP calls the hosted creative-generation service.
type HTTP struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client

	// Mock short-circuits the network and returns Canned outputs.
	Mock bool
}

// NewHTTPFromEnv configures the client from ADWIZARD_GENERATOR_URL,
// ADWIZARD_GENERATOR_KEY and ADWIZARD_GENERATOR_MOCK.
func NewHTTPFromEnv(timeout time.Duration) *HTTP {
	base := os.Getenv("ADWIZARD_GENERATOR_URL")
	if base == "" {
		base = defaultBase
	}
	mock := strings.ToLower(os.Getenv("ADWIZARD_GENERATOR_MOCK"))
	return &HTTP{
		BaseURL:    strings.TrimRight(base, "/"),
		APIKey:     os.Getenv("ADWIZARD_GENERATOR_KEY"),
		HTTPClient: &http.Client{Timeout: timeout},
		Mock:       mock == "1" || mock == "true",
	}
}

type generateResponse struct {
	Outputs []domain.Creative `json:"outputs"`
}

// Generate posts {template_id, collected_inputs} and returns the creatives.
// 429 and 402 responses surface as domain.ErrRateLimited and domain.ErrQuotaExhausted.
func (c *HTTP) Generate(ctx context.Context, req domain.GenerationRequest) ([]domain.Creative, error) {
	if c.Mock {
		return Canned(req), nil
	}
	var resp generateResponse
	if err := upstream.PostJSON(ctx, c.HTTPClient, c.BaseURL+"/v1/generations", c.APIKey, req, &resp); err != nil {
		return nil, err
	}
	return resp.Outputs, nil
}

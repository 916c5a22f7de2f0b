package generator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/adwizard/pkg/adapters/generator"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request() domain.GenerationRequest {
	return domain.GenerationRequest{
		TemplateID:      "avatar-video",
		CollectedInputs: []domain.CollectedInput{{InputID: "product-description", Type: domain.InputText, Value: domain.TextValue("earbuds")}},
	}
}

func TestMock_Generate(t *testing.T) {
	m := generator.NewMock(5 * time.Millisecond)
	out, err := m.Generate(context.Background(), request())
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Equal(t, "earbuds", out[0].Prompt)
	assert.Equal(t, int64(1), m.Calls())
}

func TestMock_RespectsContext(t *testing.T) {
	m := generator.NewMock(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Generate(ctx, request())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTP_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/generations", r.URL.Path)
		var req domain.GenerationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "avatar-video", req.TemplateID)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"outputs": []domain.Creative{{ID: "c1", Type: "video", URL: "https://x/c1.mp4", Format: "mp4", Width: 1080, Height: 1920}},
		})
	}))
	defer srv.Close()

	c := &generator.HTTP{BaseURL: srv.URL, HTTPClient: srv.Client()}
	out, err := c.Generate(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "c1", out[0].ID)
}

func TestHTTP_PassesThroughUpstreamCodes(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusPaymentRequired, domain.ErrQuotaExhausted},
		{http.StatusBadGateway, domain.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := &generator.HTTP{BaseURL: srv.URL, HTTPClient: srv.Client()}
			_, err := c.Generate(context.Background(), request())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTP_MockFromEnv(t *testing.T) {
	t.Setenv("ADWIZARD_GENERATOR_MOCK", "true")
	c := generator.NewHTTPFromEnv(time.Second)
	out, err := c.Generate(context.Background(), request())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

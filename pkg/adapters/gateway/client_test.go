package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/adwizard/pkg/adapters/gateway"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.Analyzer = (*gateway.Client)(nil)

// completionServer answers every chat-completions call with content.
func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req["messages"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
}

func newClient(srv *httptest.Server) *gateway.Client {
	return &gateway.Client{BaseURL: srv.URL, APIKey: "secret", Model: "test-model", HTTPClient: srv.Client()}
}

func TestChat(t *testing.T) {
	srv := completionServer(t, "Pick a template first.")
	defer srv.Close()

	reply, err := newClient(srv).Chat(context.Background(), []gateway.Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "Pick a template first.", reply)
}

func TestAnalyzeProduct_FencedJSON(t *testing.T) {
	srv := completionServer(t, "```json\n{\"name\":\"Aero Earbuds\",\"audience\":\"commuters\",\"features\":[\"anc\"]}\n```")
	defer srv.Close()

	out, err := newClient(srv).AnalyzeProduct(context.Background(), "https://shop.example.com/aero")
	require.NoError(t, err)
	assert.Equal(t, "Aero Earbuds", out.Name)
	assert.Equal(t, "https://shop.example.com/aero", out.URL)
	assert.Equal(t, []string{"anc"}, out.Features)
}

func TestAnalyzeProduct_InvalidJSON(t *testing.T) {
	srv := completionServer(t, "sorry, I cannot")
	defer srv.Close()

	_, err := newClient(srv).AnalyzeProduct(context.Background(), "https://shop.example.com/aero")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestForward_PassThrough(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, domain.ErrRateLimited},
		{"quota", http.StatusPaymentRequired, domain.ErrQuotaExhausted},
		{"generic", http.StatusInternalServerError, domain.ErrUpstream},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":"nope"}`, tt.status)
			}))
			defer srv.Close()

			_, err := newClient(srv).Forward(context.Background(), gateway.FunctionChat, []byte(`{"messages":[{"role":"user","content":"hi"}]}`))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestForward_Functions(t *testing.T) {
	c := &gateway.Client{Mock: true}
	ctx := context.Background()

	out, err := c.Forward(ctx, gateway.FunctionChat, []byte(`{"messages":[{"role":"user","content":"hello"}]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"reply":"Got it: hello"}`, string(out))

	out, err = c.Forward(ctx, gateway.FunctionProductAnalyzer, []byte(`{"url":"https://www.shop.com/products/trail-shoe"}`))
	require.NoError(t, err)
	var analysis domain.ProductAnalysis
	require.NoError(t, json.Unmarshal(out, &analysis))
	assert.Equal(t, "trail shoe", analysis.Name)

	out, err = c.Forward(ctx, gateway.FunctionStrategist, []byte(`{"goal":"sales"}`))
	require.NoError(t, err)
	var strategy gateway.Strategy
	require.NoError(t, json.Unmarshal(out, &strategy))
	assert.NotEmpty(t, strategy.Channels)
}

func TestForward_BadInput(t *testing.T) {
	c := &gateway.Client{Mock: true}
	ctx := context.Background()

	_, err := c.Forward(ctx, "summarize", []byte(`{}`))
	assert.ErrorIs(t, err, gateway.ErrUnknownFunction)

	_, err = c.Forward(ctx, gateway.FunctionProductAnalyzer, []byte(`{}`))
	var bad *gateway.BadRequestError
	assert.True(t, errors.As(err, &bad))

	_, err = c.Forward(ctx, gateway.FunctionChat, nil)
	assert.True(t, errors.As(err, &bad))
}

// Package gateway talks to a hosted chat-completions endpoint on behalf of the
// wizard's text functions: conversational chat, product analysis and campaign strategy.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/adwizard/internal/upstream"
	"github.com/aretw0/adwizard/pkg/domain"
)

const (
	defaultBase  = "https://ai.gateway.adwizard.dev"
	defaultModel = "google/gemini-2.5-flash"
)

// Function names served by Forward.
const (
	FunctionChat            = "chat"
	FunctionProductAnalyzer = "product-analyzer"
	FunctionStrategist      = "strategist"
)

// ErrUnknownFunction is returned by Forward for names outside the function set.
var ErrUnknownFunction = errors.New("unknown function")

// Message is one chat-completions message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is an OpenAI-compatible chat-completions client.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client

	// Mock answers locally without calling the gateway.
	Mock bool
}

// NewClientFromEnv reads ADWIZARD_GATEWAY_URL, ADWIZARD_GATEWAY_KEY,
// ADWIZARD_GATEWAY_MODEL and ADWIZARD_GATEWAY_MOCK.
func NewClientFromEnv(timeout time.Duration) *Client {
	base := os.Getenv("ADWIZARD_GATEWAY_URL")
	if base == "" {
		base = defaultBase
	}
	model := os.Getenv("ADWIZARD_GATEWAY_MODEL")
	if model == "" {
		model = defaultModel
	}
	mock := strings.ToLower(os.Getenv("ADWIZARD_GATEWAY_MOCK"))
	return &Client{
		BaseURL:    strings.TrimRight(base, "/"),
		APIKey:     os.Getenv("ADWIZARD_GATEWAY_KEY"),
		Model:      model,
		HTTPClient: &http.Client{Timeout: timeout},
		Mock:       mock == "1" || mock == "true",
	}
}

type completionRequest struct {
	Model          string    `json:"model"`
	Messages       []Message `json:"messages"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// complete sends messages and returns the first choice's content.
func (c *Client) complete(ctx context.Context, messages []Message, jsonMode bool) (string, error) {
	req := completionRequest{Model: c.Model, Messages: messages}
	if req.Model == "" {
		req.Model = defaultModel
	}
	if jsonMode {
		req.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	var resp completionResponse
	if err := upstream.PostJSON(ctx, c.httpClient(), c.BaseURL+"/v1/chat/completions", c.APIKey, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", domain.ErrUpstream)
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// decodeContent parses a model reply as JSON, tolerating markdown fences.
func decodeContent(content string, out any) error {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), out); err != nil {
		return fmt.Errorf("%w: model returned invalid json: %v", domain.ErrUpstream, err)
	}
	return nil
}

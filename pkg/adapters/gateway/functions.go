package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/aretw0/adwizard/pkg/domain"
)

const (
	chatSystemPrompt = "You are an advertising assistant helping a user create ad creatives. " +
		"Answer briefly and steer the user toward choosing a template and providing inputs."

	analyzerSystemPrompt = "You analyze product pages for advertising. Reply only with a JSON object " +
		`with keys "name", "description", "audience" and "features" (array of short strings).`

	strategistSystemPrompt = "You are a performance marketing strategist. Reply only with a JSON object " +
		`with keys "objective", "audience", "channels" (array), "daily_budget" (number), "headline" and "rationale".`
)

// ChatRequest is the body accepted by the chat function.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// ChatResponse is the body returned by the chat function.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// AnalyzeRequest is the body accepted by the product-analyzer function.
type AnalyzeRequest struct {
	URL string `json:"url"`
}

// StrategyRequest is the body accepted by the strategist function.
type StrategyRequest struct {
	Product *domain.ProductAnalysis `json:"product,omitempty"`
	Goal    string                  `json:"goal,omitempty"`
	Budget  float64                 `json:"budget,omitempty"`
}

// Strategy is a campaign recommendation.
type Strategy struct {
	Objective   string   `json:"objective"`
	Audience    string   `json:"audience"`
	Channels    []string `json:"channels"`
	DailyBudget float64  `json:"daily_budget"`
	Headline    string   `json:"headline"`
	Rationale   string   `json:"rationale"`
}

// Chat continues a conversation.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.Mock {
		last := ""
		if len(messages) > 0 {
			last = messages[len(messages)-1].Content
		}
		return "Got it: " + last, nil
	}
	all := make([]Message, 0, len(messages)+1)
	all = append(all, Message{Role: "system", Content: chatSystemPrompt})
	all = append(all, messages...)
	return c.complete(ctx, all, false)
}

// AnalyzeProduct summarizes the product behind a URL. It satisfies ports.Analyzer.
func (c *Client) AnalyzeProduct(ctx context.Context, rawURL string) (*domain.ProductAnalysis, error) {
	if c.Mock {
		return mockAnalysis(rawURL), nil
	}
	content, err := c.complete(ctx, []Message{
		{Role: "system", Content: analyzerSystemPrompt},
		{Role: "user", Content: "Product URL: " + rawURL},
	}, true)
	if err != nil {
		return nil, err
	}
	var out domain.ProductAnalysis
	if err := decodeContent(content, &out); err != nil {
		return nil, err
	}
	out.URL = rawURL
	return &out, nil
}

// Strategize recommends a campaign setup for a product.
func (c *Client) Strategize(ctx context.Context, req StrategyRequest) (*Strategy, error) {
	if c.Mock {
		return &Strategy{
			Objective:   "conversions",
			Audience:    "adults 25-44 interested in the product category",
			Channels:    []string{"meta", "tiktok"},
			DailyBudget: 50,
			Headline:    "Meet your new favorite",
			Rationale:   "Short-form video performs best for new product launches.",
		}, nil
	}
	brief, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	content, err := c.complete(ctx, []Message{
		{Role: "system", Content: strategistSystemPrompt},
		{Role: "user", Content: string(brief)},
	}, true)
	if err != nil {
		return nil, err
	}
	var out Strategy
	if err := decodeContent(content, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forward runs a named function with a JSON body and returns its JSON response.
// Upstream 429 and 402 are returned as domain.ErrRateLimited and domain.ErrQuotaExhausted.
func (c *Client) Forward(ctx context.Context, function string, body []byte) ([]byte, error) {
	switch function {
	case FunctionChat:
		var req ChatRequest
		if err := unmarshalBody(body, &req); err != nil {
			return nil, err
		}
		reply, err := c.Chat(ctx, req.Messages)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ChatResponse{Reply: reply})
	case FunctionProductAnalyzer:
		var req AnalyzeRequest
		if err := unmarshalBody(body, &req); err != nil {
			return nil, err
		}
		if strings.TrimSpace(req.URL) == "" {
			return nil, &BadRequestError{Msg: "url is required"}
		}
		out, err := c.AnalyzeProduct(ctx, req.URL)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	case FunctionStrategist:
		var req StrategyRequest
		if err := unmarshalBody(body, &req); err != nil {
			return nil, err
		}
		out, err := c.Strategize(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, function)
	}
}

// BadRequestError reports a malformed function body.
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string { return "bad request: " + e.Msg }

func unmarshalBody(body []byte, out any) error {
	if len(body) == 0 {
		return &BadRequestError{Msg: "empty body"}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &BadRequestError{Msg: err.Error()}
	}
	return nil
}

func mockAnalysis(rawURL string) *domain.ProductAnalysis {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		name = strings.TrimPrefix(u.Host, "www.")
		if path := strings.Trim(u.Path, "/"); path != "" {
			parts := strings.Split(path, "/")
			name = strings.ReplaceAll(parts[len(parts)-1], "-", " ")
		}
	}
	return &domain.ProductAnalysis{
		URL:         rawURL,
		Name:        name,
		Description: "Product imported from " + rawURL,
		Audience:    "online shoppers",
		Features:    []string{"fast shipping", "great reviews"},
	}
}

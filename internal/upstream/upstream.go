// Package upstream maps HTTP failures of hosted services onto domain errors.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/adwizard/pkg/domain"
)

// maxErrorBody caps how much of an error response is kept in the message.
const maxErrorBody = 512

// MaxResponseBody caps how much of any upstream response is read.
const MaxResponseBody = 4 << 20

// StatusError is an upstream non-2xx response.
type StatusError struct {
	Code int
	Body string
	kind error
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%v: http %d", e.kind, e.Code)
	}
	return fmt.Sprintf("%v: http %d: %s", e.kind, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return e.kind }

// FromStatus classifies a response status. 429 is rate limiting and 402 quota
// exhaustion; anything else non-2xx is a generic upstream failure.
func FromStatus(code int, body []byte) error {
	if code >= 200 && code < 300 {
		return nil
	}
	kind := domain.ErrUpstream
	switch code {
	case http.StatusTooManyRequests:
		kind = domain.ErrRateLimited
	case http.StatusPaymentRequired:
		kind = domain.ErrQuotaExhausted
	}
	return &StatusError{Code: code, Body: truncate(strings.TrimSpace(string(body)), maxErrorBody), kind: kind}
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Status is the HTTP status a handler should relay for err.
func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrQuotaExhausted):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrGenerationTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PostJSON sends body as JSON and decodes a 2xx response into out.
// Transport failures are wrapped in domain.ErrUpstream.
func PostJSON(ctx context.Context, client *http.Client, url, apiKey string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer res.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(res.Body, MaxResponseBody+1))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", domain.ErrUpstream, err)
	}
	if len(bodyBytes) > MaxResponseBody {
		if ferr := FromStatus(res.StatusCode, bodyBytes); ferr != nil {
			return ferr
		}
		return fmt.Errorf("%w: response exceeds %d bytes", domain.ErrUpstream, MaxResponseBody)
	}
	if err := FromStatus(res.StatusCode, bodyBytes); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("%w: invalid response: %v", domain.ErrUpstream, err)
	}
	return nil
}

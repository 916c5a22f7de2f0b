package domain

import (
	"errors"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrTemplateNotFound is returned by catalogs when a template id is unknown.
var ErrTemplateNotFound = errors.New("template not found")

// Upstream failure classes surfaced by the LLM gateway and the generation service.
var (
	ErrRateLimited       = errors.New("rate limited")
	ErrQuotaExhausted    = errors.New("quota exhausted")
	ErrGenerationTimeout = errors.New("generation timed out")
	ErrUpstream          = errors.New("upstream failure")
)

// UserMessage maps an error to the human-readable text shown in the conversation.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "We're getting a lot of requests right now. Please try again in a moment."
	case errors.Is(err, ErrQuotaExhausted):
		return "Your AI credits are used up. Add credits to keep generating."
	case errors.Is(err, ErrGenerationTimeout):
		return "Generation took too long and was stopped. You can try again."
	default:
		return "Something went wrong while generating your creative."
	}
}

// Retryable reports whether a failed generation may be started again by the user.
func Retryable(err error) bool {
	return !errors.Is(err, ErrQuotaExhausted)
}

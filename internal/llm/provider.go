// Package llm wraps a single model endpoint behind a retrying, rate-limited
// client with defensive response parsing.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Role identifies who authored a prompt turn
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
)

// Turn is one message in a prompt conversation
type Turn struct {
	Role    Role
	Content string
}

// CompletionRequest is the provider-level call input
type CompletionRequest struct {
	Turns       []Turn
	MaxTokens   int
	Temperature float32

	// AllowWebSearch lets providers that support a search tool ground their
	// answers; providers without one ignore the flag.
	AllowWebSearch bool
}

// Provider defines the interface for model endpoints
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends the prompt turns and returns the raw response text
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Error taxonomy. Quota exhaustion is the only retryable failure; request
// timeouts and provider API errors indicate a malformed or oversized request
// and are surfaced immediately.
var (
	// ErrClientExhausted means the local rate limiter timed out before a
	// token was obtained. Non-retryable.
	ErrClientExhausted = errors.New("llm client exhausted: local rate limit timeout")

	// ErrRateLimited is the terminal error after all quota retries failed.
	ErrRateLimited = errors.New("llm rate limited: retry attempts exhausted")
)

// QuotaError signals upstream quota exhaustion, optionally carrying a
// provider-suggested retry delay embedded in the message.
type QuotaError struct {
	Message string
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exhausted: %s", e.Message)
}

// TimeoutError signals that the upstream request deadline elapsed
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("llm request timeout: %s", e.Message)
}

// APIError signals a provider-side request failure (bad request, auth, 5xx)
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api error (status %d): %s", e.StatusCode, e.Message)
}

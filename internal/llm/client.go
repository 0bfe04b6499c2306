package llm

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/releasegate/releasegate/internal/model"
	"github.com/releasegate/releasegate/internal/ratelimit"
)

const maxAttempts = 3

// retryDelayPattern matches provider-suggested delays like "retry in 2.5s",
// "retry after 3 seconds" or "retryDelay: 4s".
var retryDelayPattern = regexp.MustCompile(`(?i)retry(?:ing)?(?:\s*delay)?(?:\s+after|\s+in|\s*[:=])?\s*([0-9]+(?:\.[0-9]+)?)\s*s`)

// Client wraps one model endpoint with rate limiting, quota retry and
// per-call timeout enforcement. Safe for concurrent use by multiple checkers.
type Client struct {
	provider Provider
	limiter  *ratelimit.Limiter
	config   model.LLMConfig
	logger   *zap.Logger

	// injectable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client around a provider and a shared limiter
func NewClient(provider Provider, limiter *ratelimit.Limiter, config model.LLMConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider: provider,
		limiter:  limiter,
		config:   config,
		logger:   logger,
		sleep:    sleepUntil,
	}
}

// Invoke sends the prompt turns and returns the raw response text.
//
// A rate-limiter token is acquired before every attempt. Quota exhaustion
// releases the token (no real capacity was consumed), sleeps for the
// provider-suggested delay and retries; request timeouts and API errors
// release the token and fail immediately since they likely indicate a
// malformed request rather than transient load.
func (c *Client) Invoke(ctx context.Context, turns []Turn, allowWebSearch bool) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return "", ErrClientExhausted
		}

		callCtx, cancel := context.WithTimeout(ctx, time.Duration(c.config.RequestTimeout)*time.Second)
		text, err := c.provider.Complete(callCtx, CompletionRequest{
			Turns:          turns,
			MaxTokens:      c.config.MaxTokens,
			Temperature:    c.config.Temperature,
			AllowWebSearch: allowWebSearch,
		})
		cancel()

		if err == nil {
			return text, nil
		}

		var quotaErr *QuotaError
		if errors.As(err, &quotaErr) {
			c.limiter.Release()
			lastErr = err
			if attempt == maxAttempts {
				break
			}
			delay := retryDelay(quotaErr.Message, attempt)
			c.logger.Warn("quota exhausted, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay))
			if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
				return "", ErrClientExhausted
			}
			continue
		}

		// Timeouts and API errors are not retried.
		c.limiter.Release()
		return "", err
	}

	c.logger.Error("quota retries exhausted", zap.Error(lastErr))
	return "", ErrRateLimited
}

// retryDelay parses a suggested delay out of the quota error message,
// clamped to [0.5s, 10s]; absent a suggestion it backs off 1.5s per attempt,
// capped at 5s.
func retryDelay(message string, attempt int) time.Duration {
	if m := retryDelayPattern.FindStringSubmatch(message); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
			if secs < 0.5 {
				secs = 0.5
			}
			if secs > 10 {
				secs = 10
			}
			return time.Duration(secs * float64(time.Second))
		}
	}

	secs := 1.5 * float64(attempt)
	if secs > 5 {
		secs = 5
	}
	return time.Duration(secs * float64(time.Second))
}

func sleepUntil(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

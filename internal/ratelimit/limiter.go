// Package ratelimit provides the token bucket guarding outbound LLM calls.
//
// One limiter instance is shared by every dimension checker through the model
// client; it must tolerate concurrent Acquire/Release. Unlike x/time/rate, a
// consumed token can be handed back with Release when a call fails before
// doing real work, so failed attempts do not burn capacity.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAcquireTimeout is returned when the caller's deadline elapses before a
// token becomes available.
var ErrAcquireTimeout = errors.New("rate limit timeout waiting for token")

const (
	minSleep   = 10 * time.Millisecond
	maxBackoff = 2 * time.Second
)

// Limiter is a token bucket with continuous refill.
// Capacity equals the allowed requests per minute; tokens refill at
// capacity/60 per second.
type Limiter struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	last       time.Time

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter sized for the given requests-per-minute budget
func New(maxRequestsPerMinute int) *Limiter {
	if maxRequestsPerMinute <= 0 {
		maxRequestsPerMinute = 1
	}
	capacity := float64(maxRequestsPerMinute)
	return &Limiter{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: capacity / 60.0,
		last:       time.Now(),
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Acquire blocks until a token is available or ctx expires.
// The wait between re-checks starts at the computed refill wait and doubles
// per failed attempt, floored at minSleep and capped at maxBackoff.
// A deadline that elapses while waiting yields ErrAcquireTimeout; a plain
// cancellation surfaces the context error itself.
func (l *Limiter) Acquire(ctx context.Context) error {
	backoffFactor := 1.0
	for {
		if wait, ok := l.tryAcquire(); !ok {
			delay := time.Duration(float64(wait) * backoffFactor)
			if delay < minSleep {
				delay = minSleep
			}
			if delay > maxBackoff {
				delay = maxBackoff
			}
			if deadline, has := ctx.Deadline(); has && l.now().Add(delay).After(deadline) {
				// The wait cannot complete before the deadline.
				return ErrAcquireTimeout
			}
			if err := l.sleep(ctx, delay); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return ErrAcquireTimeout
				}
				return err
			}
			backoffFactor *= 2
			continue
		}
		return nil
	}
}

// tryAcquire refills and consumes a token if one is available; otherwise it
// returns the time until the next token.
func (l *Limiter) tryAcquire() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens >= 1 {
		l.tokens--
		return 0, true
	}
	wait := time.Duration((1 - l.tokens) / l.refillRate * float64(time.Second))
	return wait, false
}

// Release restores one token, capped at capacity. Used when a call failed
// before consuming a unit of real work.
func (l *Limiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	l.tokens++
	if l.tokens > l.capacity {
		l.tokens = l.capacity
	}
}

// Available reports the current token count (diagnostic)
func (l *Limiter) Available() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.tokens
}

// refill credits tokens for elapsed time; callers must hold the mutex
func (l *Limiter) refill() {
	now := l.now()
	elapsed := now.Sub(l.last).Seconds()
	if elapsed > 0 {
		l.tokens += elapsed * l.refillRate
		if l.tokens > l.capacity {
			l.tokens = l.capacity
		}
	}
	l.last = now
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

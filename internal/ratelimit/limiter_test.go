package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLimiter_AcquireWithinCapacity(t *testing.T) {
	l := New(5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
	}

	if avail := l.Available(); avail >= 1 {
		t.Errorf("expected bucket drained, got %.2f tokens", avail)
	}
}

func TestLimiter_ExhaustedBucketBlocks(t *testing.T) {
	// Capacity 60 refills at 1 token/sec, so the 61st acquisition must wait
	// close to a full second.
	l := New(60)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
	}

	wait, ok := l.tryAcquire()
	if ok {
		t.Fatal("expected empty bucket")
	}
	if wait <= 0 {
		t.Errorf("expected computable non-zero wait, got %v", wait)
	}
	if wait > 1100*time.Millisecond {
		t.Errorf("wait should be about one refill interval, got %v", wait)
	}
}

func TestLimiter_AcquireTimeout(t *testing.T) {
	l := New(60)
	ctx := context.Background()
	for i := 0; i < 60; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
	}

	// Deadline shorter than the ~1s refill wait.
	shortCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	err := l.Acquire(shortCtx)
	if err != ErrAcquireTimeout {
		t.Errorf("expected ErrAcquireTimeout, got %v", err)
	}
}

func TestLimiter_CancellationSurfacesContextError(t *testing.T) {
	l := New(60)
	for i := 0; i < 60; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
	}

	// Plain cancellation, no deadline.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := l.Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrAcquireTimeout) {
		t.Error("cancellation must not be reported as a rate limit timeout")
	}
}

func TestLimiter_BlockedAcquireEventuallySucceeds(t *testing.T) {
	// High rate so the test stays fast: 6000/min = 100 tokens/sec.
	l := New(6000)
	l.mu.Lock()
	l.tokens = 0
	l.mu.Unlock()

	start := time.Now()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("expected a non-zero blocking duration, got %v", elapsed)
	}
}

func TestLimiter_ReleaseRestoresToken(t *testing.T) {
	l := New(2)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	l.Release()
	if err := l.Acquire(ctx); err != nil {
		t.Errorf("acquire after release failed: %v", err)
	}
}

func TestLimiter_ReleaseCappedAtCapacity(t *testing.T) {
	l := New(3)
	for i := 0; i < 10; i++ {
		l.Release()
	}
	if avail := l.Available(); avail > 3.01 {
		t.Errorf("tokens should be capped at capacity, got %.2f", avail)
	}
}

func TestLimiter_ConcurrentAcquireRelease(t *testing.T) {
	l := New(6000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(ctx); err != nil {
				t.Errorf("concurrent acquire failed: %v", err)
				return
			}
			l.Release()
		}()
	}
	wg.Wait()
}

package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecuteReturnsResult(t *testing.T) {
	l := New(100, 1)
	got, err := Execute(context.Background(), l, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestExecutePropagatesError(t *testing.T) {
	wantErr := errors.New("boom")
	_, err := Execute(context.Background(), New(100, 1), func(ctx context.Context) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}

func TestExecuteThrottles(t *testing.T) {
	l := New(20, 1)
	var calls atomic.Int32
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Execute(context.Background(), l, func(ctx context.Context) (struct{}, error) {
				calls.Add(1)
				return struct{}{}, nil
			})
		}()
	}
	wg.Wait()

	if calls.Load() != 5 {
		t.Fatalf("calls = %d, want 5", calls.Load())
	}
	// 5 calls at 20/s with burst 1 need at least 4 intervals of 50ms.
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Fatalf("calls were not throttled, elapsed %s", elapsed)
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	l := New(0.1, 1)
	// drain the single token
	_ = l.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	_, err := Execute(ctx, l, func(ctx context.Context) (int, error) {
		called = true
		return 0, nil
	})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if called {
		t.Fatal("fn must not run without a token")
	}
}

func TestExecuteNilLimiter(t *testing.T) {
	got, err := Execute(context.Background(), nil, func(ctx context.Context) (int, error) { return 7, nil })
	if err != nil || got != 7 {
		t.Fatalf("got %d, %v", got, err)
	}
}

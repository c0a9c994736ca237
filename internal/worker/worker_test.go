package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"cpsync/internal/config"
	"cpsync/internal/merge"
	"cpsync/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRetry() config.RetryConfig {
	return config.RetryConfig{
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		CycleTimeout:    time.Second,
	}
}

func categoryErr(cat merge.Category) error {
	return &merge.CycleError{Category: cat, Kind: model.KindSession, Err: errors.New("boom")}
}

func TestTransportFailureRetriesThenTerminates(t *testing.T) {
	var calls atomic.Int64
	l := &Loop{
		Interval: time.Millisecond,
		Logger:   testLogger(),
		Retry:    testRetry(),
		Cycle: func(context.Context) error {
			calls.Add(1)
			return categoryErr(merge.CategoryTransport)
		},
	}

	done := make(chan struct{})
	go func() {
		l.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("loop did not terminate after exhausted retries")
	}
	// Initial attempt plus two retries.
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestTransportFailureRecoversWithinRetryBudget(t *testing.T) {
	var calls atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		Interval: time.Hour,
		Logger:   testLogger(),
		Retry:    testRetry(),
		Cycle: func(context.Context) error {
			if calls.Add(1) == 1 {
				return categoryErr(merge.CategoryTransport)
			}
			cancel()
			return nil
		},
	}
	l.Run(ctx)
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected recovery on second attempt, got %d attempts", got)
	}
}

func TestDataFailureKeepsLooping(t *testing.T) {
	var calls atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	l := &Loop{
		Interval: time.Millisecond,
		Logger:   testLogger(),
		Retry:    testRetry(),
		Cycle: func(context.Context) error {
			if calls.Add(1) >= 3 {
				cancel()
			}
			return categoryErr(merge.CategoryData)
		},
	}
	l.Run(ctx)
	if got := calls.Load(); got < 3 {
		t.Fatalf("loop stopped after %d cycles, expected it to keep polling", got)
	}
}

func TestPersistenceFailureTerminates(t *testing.T) {
	var calls atomic.Int64
	l := &Loop{
		Interval: time.Millisecond,
		Logger:   testLogger(),
		Retry:    testRetry(),
		Cycle: func(context.Context) error {
			calls.Add(1)
			return categoryErr(merge.CategoryPersistence)
		},
	}
	l.Run(context.Background())
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestSupervisorIsolatesFailedLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var healthy atomic.Int64
	sup := NewSupervisor()
	sup.Add(&Loop{
		Interval: time.Millisecond,
		Logger:   testLogger(),
		Retry:    testRetry(),
		Cycle: func(context.Context) error {
			return categoryErr(merge.CategoryPersistence)
		},
	})
	sup.Add(&Loop{
		Interval: time.Millisecond,
		Logger:   testLogger(),
		Retry:    testRetry(),
		Cycle: func(context.Context) error {
			if healthy.Add(1) >= 3 {
				cancel()
			}
			return nil
		},
	})

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("supervisor did not drain")
	}
	if got := healthy.Load(); got < 3 {
		t.Fatalf("healthy loop ran %d cycles, expected it to survive its sibling", got)
	}
}

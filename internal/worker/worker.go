package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"cpsync/internal/config"
	"cpsync/internal/merge"
	"cpsync/internal/status"
)

// CycleFunc is one full poll cycle for an entity kind.
type CycleFunc func(ctx context.Context) error

// Loop runs one entity kind's cycles at a fixed interval. Failure policy by
// category: transport errors are retried with exponential backoff and
// terminate the loop once retries are exhausted; data errors abort the
// cycle and the loop keeps polling; persistence errors terminate the loop.
// Uncategorized errors are logged and the loop keeps polling.
type Loop struct {
	Name     string
	Interval time.Duration
	Cycle    CycleFunc
	Logger   *slog.Logger
	Retry    config.RetryConfig
	// Status receives cycle outcomes for the HTTP status API; nil disables
	// tracking.
	Status *status.Store
}

// Run polls until ctx is cancelled or the loop hits a terminal failure. An
// in-flight cycle is never interrupted by shutdown; cancellation is only
// observed between cycles.
func (l *Loop) Run(ctx context.Context) {
	l.Logger.Info("worker started", "interval", l.Interval.String())
	for {
		select {
		case <-ctx.Done():
			l.Logger.Info("worker stopped")
			return
		default:
		}
		if err := l.runCycle(ctx); err != nil {
			cat := merge.Classify(err)
			l.Status.RecordFailure(l.Name, cat.String(), err)
			switch cat {
			case merge.CategoryData:
				l.Logger.Error("cycle aborted, prior ledger preserved", "category", "data", "err", err)
			case merge.CategoryTransport:
				l.Logger.Error("worker terminating after exhausted retries", "category", "transport", "err", err)
				l.Status.MarkTerminated(l.Name)
				return
			case merge.CategoryPersistence:
				l.Logger.Error("worker terminating", "category", "persistence", "err", err)
				l.Status.MarkTerminated(l.Name)
				return
			default:
				l.Logger.Error("cycle failed", "err", err)
			}
		} else {
			l.Status.RecordSuccess(l.Name)
		}
		select {
		case <-time.After(l.Interval):
		case <-ctx.Done():
			l.Logger.Info("worker stopped")
			return
		}
	}
}

// runCycle executes one cycle, retrying transport failures with backoff.
// The cycle runs on its own context so shutdown does not abort it mid-merge;
// the retry wait does observe ctx.
func (l *Loop) runCycle(ctx context.Context) error {
	op := func() error {
		cctx := context.Background()
		cancel := func() {}
		if l.Retry.CycleTimeout > 0 {
			cctx, cancel = context.WithTimeout(cctx, l.Retry.CycleTimeout)
		}
		defer cancel()
		err := l.Cycle(cctx)
		if err == nil {
			return nil
		}
		if merge.Classify(err) == merge.CategoryTransport {
			l.Logger.Warn("transport failure, retrying", "err", err)
			return err
		}
		return backoff.Permanent(err)
	}
	bo := backoff.NewExponentialBackOff()
	if l.Retry.InitialInterval > 0 {
		bo.InitialInterval = l.Retry.InitialInterval
	}
	if l.Retry.MaxInterval > 0 {
		bo.MaxInterval = l.Retry.MaxInterval
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, l.Retry.MaxRetries), ctx))
}

// Supervisor runs independent loops, one goroutine each. A loop that
// terminates does not affect its siblings; Run returns when every loop has
// exited.
type Supervisor struct {
	loops []*Loop
}

func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

func (s *Supervisor) Add(l *Loop) {
	s.loops = append(s.loops, l)
}

func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, l := range s.loops {
		wg.Add(1)
		go func(l *Loop) {
			defer wg.Done()
			l.Run(ctx)
		}(l)
	}
	wg.Wait()
}

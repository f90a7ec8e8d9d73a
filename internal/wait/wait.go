// Package wait implements the polling loop shared by element resolution and
// every wait_for / verify predicate.
package wait

import (
	"context"
	"time"

	"github.com/golemhq/golem-sub001/internal/metrics"
	"github.com/golemhq/golem-sub001/pkg/logg"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = 500 * time.Millisecond

// Condition reports whether the awaited state was reached. A non-nil error
// aborts the wait immediately.
type Condition func(ctx context.Context) (bool, error)

// Spec describes one wait.
type Spec struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Condition    Condition
}

// Result reports how a wait ended.
type Result struct {
	Met      bool
	Attempts int
	Elapsed  time.Duration
}

type Waiter struct {
	clock  clockwork.Clock
	poll   time.Duration
	logger *zap.Logger
}

func NewWaiter(clock clockwork.Clock, poll time.Duration, logger *zap.Logger) *Waiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	if poll <= 0 {
		poll = DefaultPollInterval
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Waiter{
		clock:  clock,
		poll:   poll,
		logger: logger.With(zap.String(logg.Layer, "Waiter")),
	}
}

func (w *Waiter) PollInterval() time.Duration {
	return w.poll
}

func (w *Waiter) Clock() clockwork.Clock {
	return w.clock
}

// Run evaluates the condition until it holds or the budget is spent. The
// condition is always evaluated at least once. After each miss the loop
// sleeps one poll interval and subtracts the real time the iteration took
// (evaluation plus sleep) from the remaining budget, so a slow backend eats
// into the timeout the same way a slow page does. A timeout of zero means a
// single evaluation without sleeping.
func (w *Waiter) Run(ctx context.Context, spec Spec) (Result, error) {
	poll := spec.PollInterval
	if poll <= 0 {
		poll = w.poll
	}

	start := w.clock.Now()
	remaining := spec.Timeout

	var res Result

	for {
		iterStart := w.clock.Now()
		res.Attempts++

		ok, err := spec.Condition(ctx)
		if err != nil {
			res.Elapsed = w.clock.Since(start)
			metrics.RecordWait(metrics.WaitError, res.Elapsed)

			return res, err
		}

		if ok {
			res.Met = true
			res.Elapsed = w.clock.Since(start)
			metrics.RecordWait(metrics.WaitMet, res.Elapsed)

			return res, nil
		}

		if remaining <= 0 {
			break
		}

		select {
		case <-ctx.Done():
			res.Elapsed = w.clock.Since(start)
			metrics.RecordWait(metrics.WaitError, res.Elapsed)

			return res, ctx.Err()
		case <-w.clock.After(poll):
		}

		remaining -= w.clock.Since(iterStart)
		if remaining <= 0 {
			break
		}
	}

	res.Elapsed = w.clock.Since(start)
	metrics.RecordWait(metrics.WaitTimeout, res.Elapsed)

	w.logger.Debug("Wait budget exhausted",
		zap.Duration(logg.Timeout, spec.Timeout),
		zap.Int(logg.Attempts, res.Attempts))

	return res, nil
}

// Until is Run with the configured poll interval, returning only whether the
// condition was met.
func (w *Waiter) Until(ctx context.Context, timeout time.Duration, cond Condition) (bool, error) {
	res, err := w.Run(ctx, Spec{Timeout: timeout, Condition: cond})

	return res.Met, err
}

// Soft waits best-effort: timeout exhaustion is not an error, every other
// failure is returned.
func (w *Waiter) Soft(ctx context.Context, timeout time.Duration, cond Condition) (bool, error) {
	return w.Until(ctx, timeout, cond)
}

// Hard waits and converts timeout exhaustion into the error built by onTimeout.
func (w *Waiter) Hard(ctx context.Context, timeout time.Duration, cond Condition, onTimeout func() error) error {
	ok, err := w.Until(ctx, timeout, cond)
	if err != nil {
		return err
	}

	if !ok {
		return onTimeout()
	}

	return nil
}

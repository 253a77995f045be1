// Package waiter drives sensors locally: it pokes on an interval until the
// monitored operation finishes, fails, or the sensor's timeout expires.
//
// Production deployments leave this loop to the scheduler (for example a
// Step Functions Wait state around the poke Lambda). The waiter backs the
// CLI's wait command.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/tripwire/internal/metrics"
	"github.com/dwsmith1983/tripwire/internal/sensor"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

const (
	DefaultPokeInterval = 60 * time.Second
	DefaultTimeout      = 7 * 24 * time.Hour
)

// ErrTimeout is returned when a sensor is still pending at its deadline.
var ErrTimeout = errors.New("sensor timed out")

// Poker is the part of a sensor the waiter drives.
type Poker interface {
	Result(ctx context.Context) (types.PokeResult, error)
	Config() types.SensorConfig
}

// Waiter pokes sensors until they reach a terminal outcome.
type Waiter struct {
	logger      *slog.Logger
	interval    time.Duration
	timeout     time.Duration
	concurrency int
	failFast    bool
	notifier    sensor.Notifier
}

// Option configures a Waiter.
type Option func(*Waiter)

// WithLogger sets the waiter's logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Waiter) { w.logger = l }
}

// WithDefaultInterval sets the poke interval for sensors that do not set one.
func WithDefaultInterval(d time.Duration) Option {
	return func(w *Waiter) { w.interval = d }
}

// WithDefaultTimeout sets the timeout for sensors that do not set one.
func WithDefaultTimeout(d time.Duration) Option {
	return func(w *Waiter) { w.timeout = d }
}

// WithConcurrency limits how many sensors WaitAll drives at once. n <= 0
// means no limit.
func WithConcurrency(n int) Option {
	return func(w *Waiter) { w.concurrency = n }
}

// WithFailFast makes WaitAll cancel the remaining sensors after the first
// hard failure.
func WithFailFast(b bool) Option {
	return func(w *Waiter) { w.failFast = b }
}

// WithNotifier reports timeouts, which never pass through a sensor's own
// notifier, to n.
func WithNotifier(n sensor.Notifier) Option {
	return func(w *Waiter) { w.notifier = n }
}

// New creates a Waiter.
func New(opts ...Option) *Waiter {
	w := &Waiter{
		logger:   slog.Default(),
		interval: DefaultPokeInterval,
		timeout:  DefaultTimeout,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Wait pokes p until it succeeds or returns a terminal error. Provider errors
// are logged and retried on the next interval. When the sensor's timeout
// expires first, Wait returns ErrTimeout, or a *sensor.SkipError for a soft
// fail sensor. Cancelling ctx stops the loop with ctx's error.
func (w *Waiter) Wait(ctx context.Context, p Poker) (types.PokeResult, error) {
	cfg := p.Config()
	interval, err := cfg.PokeIntervalDuration(w.interval)
	if err != nil {
		return types.PokeResult{}, err
	}
	timeout, err := cfg.TimeoutDuration(w.timeout)
	if err != nil {
		return types.PokeResult{}, err
	}
	logger := w.logger.With("sensor", cfg.DisplayName(), "operation", cfg.OperationID)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last types.PokeResult
	for attempt := 1; ; attempt++ {
		res, err := p.Result(waitCtx)
		last = res
		switch {
		case err == nil && res.Done():
			logger.Info("sensor done", "pokes", attempt)
			return res, nil
		case sensor.IsTerminal(err):
			return res, err
		case err != nil && waitCtx.Err() == nil:
			logger.Warn("poke failed, retrying", "attempt", attempt, "error", err)
		}

		delay := Backoff(interval, attempt, cfg.ExponentialBackoff)
		timer := time.NewTimer(delay)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			return w.timedOut(ctx, cfg, last, timeout, logger)
		case <-timer.C:
		}
	}
}

func (w *Waiter) timedOut(ctx context.Context, cfg types.SensorConfig, last types.PokeResult, timeout time.Duration, logger *slog.Logger) (types.PokeResult, error) {
	metrics.WaitsTimedOut.Add(1)
	msg := fmt.Sprintf("%s sensor %s timed out after %s", sensor.Label(cfg.Type), cfg.DisplayName(), timeout)
	last.Sensor = cfg.DisplayName()
	last.Type = cfg.Type
	last.Operation = cfg.OperationID
	last.Timestamp = time.Now().UTC()
	last.Message = msg

	var err error
	if cfg.SoftFail {
		logger.Warn("sensor timed out, skipping", "timeout", timeout, "lastStatus", last.Status)
		last.Outcome = types.OutcomeSkipped
		err = &sensor.SkipError{
			Sensor:      cfg.DisplayName(),
			OperationID: cfg.OperationID,
			Status:      last.Status,
			Message:     msg,
		}
	} else {
		logger.Error("sensor timed out", "timeout", timeout, "lastStatus", last.Status)
		last.Outcome = types.OutcomeFailed
		err = fmt.Errorf("%w: %s", ErrTimeout, msg)
	}

	if w.notifier != nil {
		w.notifier.Notify(ctx, last)
	}
	return last, err
}

// Outcome is the final state of one sensor in a WaitAll call.
type Outcome struct {
	Sensor string
	Result types.PokeResult
	Err    error
}

// Summary holds WaitAll's outcomes in input order.
type Summary []Outcome

// Count returns how many outcomes ended as o.
func (s Summary) Count(o types.PokeOutcome) int {
	n := 0
	for _, out := range s {
		if outcomeOf(out) == o {
			n++
		}
	}
	return n
}

// Err joins the errors of every sensor that neither succeeded nor skipped.
func (s Summary) Err() error {
	var errs []error
	for _, out := range s {
		if out.Err != nil && !sensor.IsSkip(out.Err) {
			errs = append(errs, out.Err)
		}
	}
	return errors.Join(errs...)
}

func outcomeOf(o Outcome) types.PokeOutcome {
	if o.Err == nil {
		return types.OutcomeSuccess
	}
	if errors.Is(o.Err, ErrTimeout) {
		return types.OutcomeFailed
	}
	return sensor.OutcomeOf(false, o.Err)
}

// WaitAll waits for every poker concurrently and returns each final outcome.
// The returned error is Summary.Err, or ctx's error when ctx ends first.
func (w *Waiter) WaitAll(ctx context.Context, pokers []Poker) (Summary, error) {
	summary := make(Summary, len(pokers))
	g, gctx := errgroup.WithContext(ctx)
	if w.concurrency > 0 {
		g.SetLimit(w.concurrency)
	}

	for i, p := range pokers {
		g.Go(func() error {
			res, err := w.Wait(gctx, p)
			summary[i] = Outcome{Sensor: p.Config().DisplayName(), Result: res, Err: err}
			if w.failFast && err != nil && !sensor.IsSkip(err) {
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, summary.Err()
}

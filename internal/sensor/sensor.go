// Package sensor implements poll-based completion sensors: each poke reads the
// status of an external operation once and reports whether it is done, still
// in progress, or failed.
//
// A sensor never loops or sleeps. The caller (a workflow scheduler, the
// poke Lambda, or the local waiter) decides when to poke again.
package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwsmith1983/tripwire/internal/metrics"
	"github.com/dwsmith1983/tripwire/internal/status"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

const instrumentationName = "github.com/dwsmith1983/tripwire/internal/sensor"

// Notifier receives the result of every poke that ends polling.
type Notifier interface {
	Notify(ctx context.Context, result types.PokeResult)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, result types.PokeResult)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, result types.PokeResult) { f(ctx, result) }

// Sensor monitors one external operation.
type Sensor struct {
	cfg      types.SensorConfig
	provider status.Provider
	table    Classification
	logger   *slog.Logger
	notifier Notifier
	now      func() time.Time

	breaker *BreakerConfig
	tp      trace.TracerProvider
	mp      metric.MeterProvider
	tracer  trace.Tracer
	pokes   metric.Int64Counter
}

// Option configures a Sensor.
type Option func(*Sensor)

// WithLogger sets the sensor's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sensor) { s.logger = l }
}

// WithNotifier registers a callback for terminal outcomes.
func WithNotifier(n Notifier) Option {
	return func(s *Sensor) { s.notifier = n }
}

// WithBreaker wraps the provider in a circuit breaker.
func WithBreaker(cfg BreakerConfig) Option {
	return func(s *Sensor) { s.breaker = &cfg }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Sensor) { s.tp = tp }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Sensor) { s.mp = mp }
}

// WithClock sets the time source used for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Sensor) { s.now = now }
}

// New creates a sensor for cfg backed by p. The configuration is copied; later
// changes to cfg do not affect the sensor.
func New(cfg types.SensorConfig, p status.Provider, opts ...Option) (*Sensor, error) {
	if p == nil {
		return nil, fmt.Errorf("sensor %s: status provider is required", cfg.DisplayName())
	}
	if !cfg.Type.Valid() {
		return nil, fmt.Errorf("sensor %s: unknown provider type %q", cfg.DisplayName(), cfg.Type)
	}
	table, err := ClassificationFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("sensor %s: %w", cfg.DisplayName(), err)
	}

	s := &Sensor{
		cfg:      cfg.Clone(),
		provider: p,
		table:    table,
		logger:   slog.Default(),
		now:      time.Now,
		tp:       otel.GetTracerProvider(),
		mp:       otel.GetMeterProvider(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("sensor", s.cfg.DisplayName(), "type", s.cfg.Type)

	if s.breaker != nil {
		s.provider = newBreakerProvider(s.cfg.DisplayName(), s.provider, *s.breaker, s.logger)
	}

	s.tracer = s.tp.Tracer(instrumentationName)
	s.pokes, err = s.mp.Meter(instrumentationName).Int64Counter("tripwire.sensor.pokes",
		metric.WithDescription("Sensor pokes by outcome."),
		metric.WithUnit("{poke}"),
	)
	if err != nil {
		return nil, fmt.Errorf("sensor %s: creating poke counter: %w", s.cfg.DisplayName(), err)
	}
	return s, nil
}

// Config returns a copy of the sensor's configuration.
func (s *Sensor) Config() types.SensorConfig {
	return s.cfg.Clone()
}

// Classification returns the sensor's status table.
func (s *Sensor) Classification() Classification {
	return s.table
}

// Poke checks the operation once. It returns true when the operation
// succeeded and false while it is still pending. A terminal failure returns a
// *SkipError when soft fail is set and a *FailureError otherwise; a status
// outside the table returns an *UnknownStatusError.
func (s *Sensor) Poke(ctx context.Context) (bool, error) {
	res, err := s.Result(ctx)
	return res.Done(), err
}

// Result performs the same check as Poke and also reports it as a
// PokeResult. The error is the one Poke would return.
func (s *Sensor) Result(ctx context.Context) (types.PokeResult, error) {
	ctx, span := s.tracer.Start(ctx, "sensor.poke", trace.WithAttributes(
		attribute.String("sensor.name", s.cfg.DisplayName()),
		attribute.String("sensor.type", string(s.cfg.Type)),
		attribute.String("sensor.operation_id", s.cfg.OperationID),
	))
	defer span.End()

	res := types.PokeResult{
		PokeID:    ulid.Make().String(),
		Sensor:    s.cfg.DisplayName(),
		Type:      s.cfg.Type,
		Operation: s.cfg.OperationID,
		Timestamp: s.now().UTC(),
	}

	done, err := s.poke(ctx, &res)
	res.Outcome = OutcomeOf(done, err)
	if err != nil {
		res.Message = err.Error()
	}

	span.SetAttributes(
		attribute.String("sensor.status", string(res.Status)),
		attribute.String("sensor.outcome", string(res.Outcome)),
	)
	if res.Outcome == types.OutcomeFailed || res.Outcome == types.OutcomeError {
		span.RecordError(err)
		span.SetStatus(codes.Error, res.Message)
	}
	s.pokes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sensor.type", string(s.cfg.Type)),
		attribute.String("outcome", string(res.Outcome)),
	))
	metrics.RecordOutcome(res.Outcome)

	if s.notifier != nil && res.Outcome.Terminal() {
		s.notifier.Notify(ctx, res)
	}
	return res, err
}

func (s *Sensor) poke(ctx context.Context, res *types.PokeResult) (bool, error) {
	obs, err := s.provider.Status(ctx, s.cfg.OperationID)
	if err != nil {
		s.logger.Warn("status check failed", "operation", s.cfg.OperationID, "error", err)
		return false, fmt.Errorf("%s sensor %s: %w", Label(s.cfg.Type), s.cfg.DisplayName(), err)
	}

	res.Status = obs.Status
	res.Category = s.table.Classify(obs.Status)

	switch res.Category {
	case types.CategoryPending:
		s.logger.Debug("operation in progress", "operation", s.cfg.OperationID, "status", obs.Status)
		return false, nil
	case types.CategorySuccess:
		s.logger.Info("operation succeeded", "operation", s.cfg.OperationID, "status", obs.Status)
		return true, nil
	case types.CategoryFailure:
		msg := failureMessage(s.cfg.Type, obs.OutputLabel, obs.Output)
		if s.cfg.SoftFail {
			s.logger.Warn("operation failed, skipping", "operation", s.cfg.OperationID, "status", obs.Status, "output", obs.Output)
			return false, &SkipError{
				Sensor:      s.cfg.DisplayName(),
				OperationID: s.cfg.OperationID,
				Status:      obs.Status,
				Output:      obs.Output,
				Message:     msg,
			}
		}
		s.logger.Error("operation failed", "operation", s.cfg.OperationID, "status", obs.Status, "output", obs.Output)
		return false, &FailureError{
			Sensor:      s.cfg.DisplayName(),
			OperationID: s.cfg.OperationID,
			Status:      obs.Status,
			Output:      obs.Output,
			Message:     msg,
		}
	default:
		metrics.UnknownStatuses.Add(1)
		s.logger.Error("unknown status", "operation", s.cfg.OperationID, "status", obs.Status)
		return false, &UnknownStatusError{
			Sensor:      s.cfg.DisplayName(),
			Type:        s.cfg.Type,
			OperationID: s.cfg.OperationID,
			Status:      obs.Status,
		}
	}
}

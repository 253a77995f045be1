// Package events publishes terminal sensor outcomes to downstream consumers.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dwsmith1983/tripwire/internal/metrics"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

const (
	// Source is the event source for every published event.
	Source = "tripwire.sensor"

	publishTimeout = 10 * time.Second
)

// Sink is an event destination.
type Sink interface {
	Publish(ctx context.Context, event types.SensorEvent) error
	Name() string
}

// Publisher fans sensor events out to its sinks. Publishing is best-effort:
// sink errors are logged and counted, never returned.
type Publisher struct {
	sinks  []Sink
	logger *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithLogger sets the publisher's logger.
func WithLogger(l *slog.Logger) PublisherOption {
	return func(p *Publisher) { p.logger = l }
}

// NewPublisher creates a publisher for the given sinks.
func NewPublisher(sinks []Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{sinks: sinks, logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Len returns the number of sinks.
func (p *Publisher) Len() int { return len(p.sinks) }

// Notify converts a poke result into an event and publishes it. It satisfies
// sensor.Notifier.
func (p *Publisher) Notify(ctx context.Context, result types.PokeResult) {
	p.Publish(ctx, NewEvent(result))
}

// Publish sends event to every sink.
func (p *Publisher) Publish(ctx context.Context, event types.SensorEvent) {
	for _, sink := range p.sinks {
		sctx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := sink.Publish(sctx, event)
		cancel()
		if err != nil {
			metrics.EventsFailed.Add(1)
			p.logger.Error("failed to publish sensor event", "sink", sink.Name(), "sensor", event.Sensor, "eventId", event.EventID, "error", err)
			continue
		}
		metrics.EventsPublished.Add(1)
	}
}

// NewEvent builds the event for a terminal poke result.
func NewEvent(result types.PokeResult) types.SensorEvent {
	ts := result.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return types.SensorEvent{
		EventID:   ulid.Make().String(),
		Sensor:    result.Sensor,
		Type:      result.Type,
		Operation: result.Operation,
		Outcome:   result.Outcome,
		Status:    result.Status,
		Message:   result.Message,
		Timestamp: ts,
	}
}

// DetailType names an event by its outcome, e.g. "Sensor Succeeded".
func DetailType(o types.PokeOutcome) string {
	switch o {
	case types.OutcomeSuccess:
		return "Sensor Succeeded"
	case types.OutcomeSkipped:
		return "Sensor Skipped"
	case types.OutcomeFailed:
		return "Sensor Failed"
	case types.OutcomePending:
		return "Sensor Pending"
	default:
		return "Sensor Error"
	}
}

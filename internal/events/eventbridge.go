package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// EventBridgeAPI is the subset of the EventBridge client used by EventBridgeSink.
type EventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgeSink puts sensor events on an event bus.
type EventBridgeSink struct {
	client  EventBridgeAPI
	busName string
}

// EventBridgeOption configures an EventBridgeSink.
type EventBridgeOption func(*EventBridgeSink)

// WithEventBridgeClient sets a custom EventBridge client (useful for testing).
func WithEventBridgeClient(c EventBridgeAPI) EventBridgeOption {
	return func(s *EventBridgeSink) { s.client = c }
}

// NewEventBridgeSink creates a sink for the named event bus.
func NewEventBridgeSink(ctx context.Context, busName string, opts ...EventBridgeOption) (*EventBridgeSink, error) {
	if busName == "" {
		return nil, fmt.Errorf("event bus name required")
	}
	s := &EventBridgeSink{busName: busName}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		s.client = eventbridge.NewFromConfig(cfg)
	}
	return s, nil
}

// Name returns the sink identifier.
func (s *EventBridgeSink) Name() string { return "eventbridge" }

// Publish puts the event with source "tripwire.sensor" and a detail type
// derived from its outcome.
func (s *EventBridgeSink) Publish(ctx context.Context, event types.SensorEvent) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	entry := ebtypes.PutEventsRequestEntry{
		EventBusName: aws.String(s.busName),
		Source:       aws.String(Source),
		DetailType:   aws.String(DetailType(event.Outcome)),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(event.Timestamp),
	}
	if strings.HasPrefix(event.Operation, "arn:") {
		entry.Resources = []string{event.Operation}
	}

	out, err := s.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{entry},
	})
	if err != nil {
		return fmt.Errorf("eventbridge: PutEvents failed: %w", err)
	}
	if out.FailedEntryCount > 0 {
		for _, e := range out.Entries {
			if e.ErrorCode != nil {
				return fmt.Errorf("eventbridge: entry rejected: %s: %s", aws.ToString(e.ErrorCode), aws.ToString(e.ErrorMessage))
			}
		}
		return fmt.Errorf("eventbridge: %d entries rejected", out.FailedEntryCount)
	}
	return nil
}

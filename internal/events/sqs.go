package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// SQSAPI is the subset of the SQS client used by SQSSink.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSink sends sensor events as JSON messages to a queue. On FIFO queues
// messages are grouped by sensor and deduplicated by event ID.
type SQSSink struct {
	client   SQSAPI
	queueURL string
}

// SQSOption configures an SQSSink.
type SQSOption func(*SQSSink)

// WithSQSClient sets a custom SQS client (useful for testing).
func WithSQSClient(c SQSAPI) SQSOption {
	return func(s *SQSSink) { s.client = c }
}

// NewSQSSink creates a sink for the given queue URL.
func NewSQSSink(ctx context.Context, queueURL string, opts ...SQSOption) (*SQSSink, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("SQS queue URL required")
	}
	s := &SQSSink{queueURL: queueURL}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		s.client = sqs.NewFromConfig(cfg)
	}
	return s, nil
}

// Name returns the sink identifier.
func (s *SQSSink) Name() string { return "sqs" }

// Publish sends the event as the message body.
func (s *SQSSink) Publish(ctx context.Context, event types.SensorEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	in := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"source":  {DataType: aws.String("String"), StringValue: aws.String(Source)},
			"outcome": {DataType: aws.String("String"), StringValue: aws.String(string(event.Outcome))},
		},
	}
	if strings.HasSuffix(s.queueURL, ".fifo") {
		in.MessageGroupId = aws.String(event.Sensor)
		in.MessageDeduplicationId = aws.String(event.EventID)
	}

	if _, err := s.client.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("sqs: SendMessage failed: %w", err)
	}
	return nil
}

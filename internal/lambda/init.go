package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dwsmith1983/tripwire/internal/events"
	"github.com/dwsmith1983/tripwire/internal/status"
	"github.com/dwsmith1983/tripwire/internal/telemetry"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

// Deps holds shared dependencies for Lambda handlers.
type Deps struct {
	Registry      *status.Registry
	Publisher     *events.Publisher
	DefaultRegion string
	Logger        *slog.Logger
	Shutdown      telemetry.ShutdownFunc
}

// Init creates shared dependencies from environment variables.
// Reads: AWS_REGION, EVENT_BUS_NAME, EVENT_QUEUE_URL, OTEL_EXPORTER_OTLP_ENDPOINT,
// OTEL_EXPORTER_OTLP_INSECURE, OTEL_SERVICE_NAME, LOG_LEVEL
func Init(ctx context.Context) (*Deps, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))

	region := os.Getenv("AWS_REGION")
	if region == "" {
		return nil, fmt.Errorf("AWS_REGION environment variable required")
	}

	var sinks []events.Sink
	if bus := os.Getenv("EVENT_BUS_NAME"); bus != "" {
		sink, err := events.NewEventBridgeSink(ctx, bus)
		if err != nil {
			return nil, fmt.Errorf("creating EventBridge sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if queueURL := os.Getenv("EVENT_QUEUE_URL"); queueURL != "" {
		sink, err := events.NewSQSSink(ctx, queueURL)
		if err != nil {
			return nil, fmt.Errorf("creating SQS sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	shutdown, err := telemetry.Setup(ctx, types.TelemetryConfig{
		Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		Insecure:    os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true",
		ServiceName: envOrDefault("OTEL_SERVICE_NAME", "tripwire-poke"),
	}, envOrDefault("AWS_LAMBDA_FUNCTION_VERSION", "dev"))
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}

	return &Deps{
		Registry:      status.NewRegistry(status.WithLogger(logger)),
		Publisher:     events.NewPublisher(sinks, events.WithLogger(logger)),
		DefaultRegion: region,
		Logger:        logger,
		Shutdown:      shutdown,
	}, nil
}

func logLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

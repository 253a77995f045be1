// Package commands implements the CLI subcommands for the tripwire binary.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/fatih/color"

	"github.com/dwsmith1983/tripwire/internal/config"
	"github.com/dwsmith1983/tripwire/internal/events"
	"github.com/dwsmith1983/tripwire/internal/sensor"
	"github.com/dwsmith1983/tripwire/internal/status"
	"github.com/dwsmith1983/tripwire/internal/telemetry"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailed  = 1
	ExitSkipped = 2
	ExitPending = 3
)

// Version is reported to telemetry; main sets it from build flags.
var Version = "dev"

// ExitError carries a non-zero exit code out of a command. Err is nil when
// the outcome was already printed (pending, skipped).
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// newRegistry builds the provider registry; tests replace it to inject clients.
var newRegistry = func(logger *slog.Logger) *status.Registry {
	return status.NewRegistry(status.WithLogger(logger))
}

// project is everything a command needs after loading tripwire.yaml.
type project struct {
	cfg       *types.ProjectConfig
	registry  *status.Registry
	publisher *events.Publisher
	shutdown  telemetry.ShutdownFunc
	logger    *slog.Logger
}

func loadProject(ctx context.Context, dir string, out io.Writer) (*project, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger := slog.Default()

	var sinks []events.Sink
	if cfg.Events.EventBus != "" {
		sink, err := events.NewEventBridgeSink(ctx, cfg.Events.EventBus)
		if err != nil {
			return nil, fmt.Errorf("creating EventBridge sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Events.QueueURL != "" {
		sink, err := events.NewSQSSink(ctx, cfg.Events.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("creating SQS sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Events.Console {
		sinks = append(sinks, events.NewConsoleSink(out))
	}

	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		return nil, err
	}

	return &project{
		cfg:       cfg,
		registry:  newRegistry(logger),
		publisher: events.NewPublisher(sinks, events.WithLogger(logger)),
		shutdown:  shutdown,
		logger:    logger,
	}, nil
}

func (p *project) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.shutdown(ctx); err != nil {
		p.logger.Warn("telemetry shutdown failed", "error", err)
	}
}

func (p *project) sensor(ctx context.Context, sc types.SensorConfig) (*sensor.Sensor, error) {
	prov, err := p.registry.Provider(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("sensor %s: %w", sc.Name, err)
	}
	opts := []sensor.Option{sensor.WithLogger(p.logger)}
	if p.publisher.Len() > 0 {
		opts = append(opts, sensor.WithNotifier(p.publisher))
	}
	if bc, ok := config.BreakerConfig(p.cfg); ok {
		opts = append(opts, sensor.WithBreaker(bc))
	}
	return sensor.New(sc, prov, opts...)
}

func exitCodeFor(o types.PokeOutcome) int {
	switch o {
	case types.OutcomeSuccess:
		return ExitOK
	case types.OutcomeSkipped:
		return ExitSkipped
	case types.OutcomePending:
		return ExitPending
	default:
		return ExitFailed
	}
}

func outcomeLabel(o types.PokeOutcome) string {
	switch o {
	case types.OutcomeSuccess:
		return color.GreenString("DONE")
	case types.OutcomePending:
		return color.CyanString("PENDING")
	case types.OutcomeSkipped:
		return color.YellowString("SKIPPED")
	case types.OutcomeFailed:
		return color.RedString("FAILED")
	default:
		return color.RedString("ERROR")
	}
}

func writeResult(w io.Writer, res types.PokeResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	line := fmt.Sprintf("%-8s %s", outcomeLabel(res.Outcome), res.Sensor)
	if res.Status != "" {
		line += " " + string(res.Status)
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if res.Message != "" {
		_, err := fmt.Fprintf(w, "         %s\n", res.Message)
		return err
	}
	return nil
}

package lambda

import (
	"context"
	"time"

	"github.com/dwsmith1983/tripwire/internal/config"
	"github.com/dwsmith1983/tripwire/internal/sensor"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

// HandlePoke performs one poke for req. Every outcome, including invalid
// requests and provider errors, is reported in the response; the returned
// error is always nil so the calling state machine can branch on it.
func HandlePoke(ctx context.Context, d *Deps, req PokeRequest) (PokeResponse, error) {
	cfg := req.Sensor
	if req.OperationID != "" {
		cfg.OperationID = req.OperationID
	}
	if cfg.Region == "" {
		cfg.Region = d.DefaultRegion
	}
	logger := d.Logger.With("sensor", cfg.DisplayName(), "type", cfg.Type, "operation", cfg.OperationID)

	if err := config.ValidateSensor(cfg); err != nil {
		logger.Error("invalid sensor request", "error", err)
		return errorResponse(cfg, "invalid sensor: "+err.Error()), nil
	}

	p, err := d.Registry.Provider(ctx, cfg)
	if err != nil {
		logger.Error("failed to build status provider", "error", err)
		return errorResponse(cfg, err.Error()), nil
	}

	opts := []sensor.Option{sensor.WithLogger(d.Logger)}
	if d.Publisher != nil && d.Publisher.Len() > 0 {
		opts = append(opts, sensor.WithNotifier(d.Publisher))
	}
	s, err := sensor.New(cfg, p, opts...)
	if err != nil {
		logger.Error("failed to create sensor", "error", err)
		return errorResponse(cfg, err.Error()), nil
	}

	res, _ := s.Result(ctx)
	return PokeResponse{
		Done:      res.Done(),
		Outcome:   res.Outcome,
		Status:    res.Status,
		Category:  res.Category,
		Message:   res.Message,
		PokeID:    res.PokeID,
		Sensor:    res.Sensor,
		Timestamp: res.Timestamp,
	}, nil
}

func errorResponse(cfg types.SensorConfig, msg string) PokeResponse {
	return PokeResponse{
		Outcome:   types.OutcomeError,
		Message:   msg,
		Sensor:    cfg.DisplayName(),
		Timestamp: time.Now().UTC(),
	}
}

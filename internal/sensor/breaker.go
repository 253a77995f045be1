package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dwsmith1983/tripwire/internal/metrics"
	"github.com/dwsmith1983/tripwire/internal/status"
)

// BreakerConfig holds circuit breaker settings for a sensor's provider.
type BreakerConfig struct {
	FailThreshold uint32        // consecutive provider errors before opening (default 5)
	Cooldown      time.Duration // how long to stay open before a trial request (default 30s)
}

// DefaultBreakerConfig returns the default config.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailThreshold: 5,
		Cooldown:      30 * time.Second,
	}
}

// breakerProvider fails fast once the wrapped provider keeps erroring.
// Terminal statuses are successful calls and never count against it.
type breakerProvider struct {
	next status.Provider
	cb   *gobreaker.CircuitBreaker
}

func newBreakerProvider(name string, next status.Provider, cfg BreakerConfig, logger *slog.Logger) *breakerProvider {
	def := DefaultBreakerConfig()
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = def.FailThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			if to == gobreaker.StateOpen {
				metrics.BreakerOpened.Add(1)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, status.ErrOperationNotFound)
		},
	})
	return &breakerProvider{next: next, cb: cb}
}

func (b *breakerProvider) Status(ctx context.Context, operationID string) (status.Observation, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Status(ctx, operationID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return status.Observation{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if err != nil {
		return status.Observation{}, err
	}
	return v.(status.Observation), nil
}

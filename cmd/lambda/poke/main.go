// poke Lambda performs a single sensor poke per invocation. A Step Functions
// Wait/Choice loop around it supplies the poke interval and timeout.
package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	awslambda "github.com/aws/aws-lambda-go/lambda"

	intlambda "github.com/dwsmith1983/tripwire/internal/lambda"
	"github.com/dwsmith1983/tripwire/internal/telemetry"
)

var (
	deps     *intlambda.Deps
	depsOnce sync.Once
	depsErr  error
)

func getDeps() (*intlambda.Deps, error) {
	depsOnce.Do(func() {
		deps, depsErr = intlambda.Init(context.Background())
	})
	return deps, depsErr
}

func handler(ctx context.Context, req intlambda.PokeRequest) (intlambda.PokeResponse, error) {
	d, err := getDeps()
	if err != nil {
		return intlambda.PokeResponse{}, err
	}
	defer func() {
		if err := telemetry.Flush(ctx); err != nil {
			d.Logger.Warn("telemetry flush failed", "error", err)
		}
	}()
	return intlambda.HandlePoke(ctx, d, req)
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	awslambda.Start(handler)
}

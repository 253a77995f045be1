package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/tripwire/internal/config"
	"github.com/dwsmith1983/tripwire/internal/waiter"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

// NewWaitCmd creates the wait command.
func NewWaitCmd() *cobra.Command {
	var (
		dir         string
		failFast    bool
		concurrency int
		interval    time.Duration
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait [sensor...]",
		Short: "Poke sensors until they finish",
		Long: `Pokes the named sensors (all sensors when none are named) on their
poke interval until each succeeds, fails, or times out.
Exits 0 when all succeed, 2 when the only non-successes are skips, 1 otherwise.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := loadProject(ctx, dir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer p.close()

			selected, err := selectSensors(p.cfg, args)
			if err != nil {
				return err
			}
			pokers := make([]waiter.Poker, 0, len(selected))
			for _, sc := range selected {
				s, err := p.sensor(ctx, sc)
				if err != nil {
					return err
				}
				pokers = append(pokers, s)
			}

			opts := []waiter.Option{
				waiter.WithLogger(p.logger),
				waiter.WithFailFast(failFast),
				waiter.WithConcurrency(concurrency),
			}
			if interval > 0 {
				opts = append(opts, waiter.WithDefaultInterval(interval))
			}
			if timeout > 0 {
				opts = append(opts, waiter.WithDefaultTimeout(timeout))
			}
			if p.publisher.Len() > 0 {
				opts = append(opts, waiter.WithNotifier(p.publisher))
			}

			summary, waitErr := waiter.New(opts...).WaitAll(ctx, pokers)
			out := cmd.OutOrStdout()
			for _, o := range summary {
				res := o.Result
				if res.Sensor == "" {
					res.Sensor = o.Sensor
				}
				if o.Err != nil && res.Message == "" {
					res.Message = o.Err.Error()
				}
				if err := writeResult(out, res, false); err != nil {
					return err
				}
			}
			_, _ = fmt.Fprintf(out, "\n%s done, %s skipped, %s failed\n",
				color.GreenString("%d", summary.Count(types.OutcomeSuccess)),
				color.YellowString("%d", summary.Count(types.OutcomeSkipped)),
				color.RedString("%d", len(summary)-summary.Count(types.OutcomeSuccess)-summary.Count(types.OutcomeSkipped)),
			)

			switch {
			case waitErr != nil:
				return &ExitError{Code: ExitFailed, Err: waitErr}
			case summary.Count(types.OutcomeSkipped) > 0:
				return &ExitError{Code: ExitSkipped}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory containing "+config.FileName)
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop waiting on all sensors after the first failure")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Maximum sensors polled at once (0 = unlimited)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Default poke interval for sensors without pokeInterval")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Default timeout for sensors without timeout")
	return cmd
}

func selectSensors(cfg *types.ProjectConfig, names []string) ([]types.SensorConfig, error) {
	if len(names) == 0 {
		return cfg.Sensors, nil
	}
	out := make([]types.SensorConfig, 0, len(names))
	for _, n := range names {
		sc, ok := config.Sensor(cfg, n)
		if !ok {
			return nil, fmt.Errorf("sensor %q not found in %s", n, config.FileName)
		}
		out = append(out, sc)
	}
	return out, nil
}

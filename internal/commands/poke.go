package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/tripwire/internal/config"
)

// NewPokeCmd creates the poke command.
func NewPokeCmd() *cobra.Command {
	var (
		dir         string
		operationID string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "poke <sensor>",
		Short: "Check a sensor's operation once",
		Long: `Performs a single poke and exits with the outcome:
  0 done, 1 failed or error, 2 skipped (soft fail), 3 still pending.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := loadProject(ctx, dir, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer p.close()

			sc, ok := config.Sensor(p.cfg, args[0])
			if !ok {
				return fmt.Errorf("sensor %q not found in %s", args[0], config.FileName)
			}
			if operationID != "" {
				sc.OperationID = operationID
			}

			s, err := p.sensor(ctx, sc)
			if err != nil {
				return err
			}
			res, pokeErr := s.Result(ctx)
			if err := writeResult(cmd.OutOrStdout(), res, asJSON); err != nil {
				return err
			}
			if code := exitCodeFor(res.Outcome); code != ExitOK {
				return &ExitError{Code: code, Err: silentFor(code, pokeErr)}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory containing "+config.FileName)
	cmd.Flags().StringVar(&operationID, "operation-id", "", "Override the sensor's operation ID")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// silentFor drops the error for outcomes that are already fully reported.
func silentFor(code int, err error) error {
	if code == ExitPending || code == ExitSkipped {
		return nil
	}
	return err
}

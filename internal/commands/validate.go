package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/tripwire/internal/config"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate " + config.FileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range cfg.Sensors {
				soft := ""
				if s.SoftFail {
					soft = " (soft fail)"
				}
				_, _ = fmt.Fprintf(out, "  %s %-30s %s%s\n", color.GreenString("✓"), s.Name, s.Type, soft)
			}
			_, _ = fmt.Fprintf(out, "%d sensors valid\n", len(cfg.Sensors))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory containing "+config.FileName)
	return cmd
}

package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/tripwire/internal/sensor"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

// NewStatusesCmd creates the statuses command.
func NewStatusesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statuses [type]",
		Short: "Show the built-in status table of a provider type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pts := types.ProviderTypes
			if len(args) == 1 {
				pt := types.ProviderType(args[0])
				if !pt.Valid() {
					return fmt.Errorf("unknown provider type %q", args[0])
				}
				pts = []types.ProviderType{pt}
			}

			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			for _, pt := range pts {
				c, _ := sensor.TableFor(pt)
				_, _ = bold.Fprintf(out, "%s (%s)\n", sensor.Label(pt), pt)
				_, _ = fmt.Fprintf(out, "  %-8s %s\n", color.CyanString("pending"), join(c.Statuses(types.CategoryPending)))
				_, _ = fmt.Fprintf(out, "  %-8s %s\n", color.GreenString("success"), join(c.Statuses(types.CategorySuccess)))
				_, _ = fmt.Fprintf(out, "  %-8s %s\n", color.RedString("failure"), join(c.Statuses(types.CategoryFailure)))
			}
			return nil
		},
	}
	return cmd
}

func join(statuses []types.Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dwsmith1983/tripwire/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter " + config.FileName,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing "+config.FileName)
	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = color.New(color.Bold).Fprintf(out, "Wrote %s\n", path)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintf(out, "  1. Replace the example operation IDs in %s\n", config.FileName)
	_, _ = fmt.Fprintln(out, "  2. tripwire validate")
	_, _ = fmt.Fprintln(out, "  3. tripwire poke nightly-etl")
	return nil
}

const starterConfig = `# Operation IDs may reference environment variables, e.g. ${EXECUTION_ARN}.
defaults:
  region: us-east-1
  pokeInterval: 30s
  timeout: 6h

events:
  console: true

sensors:
  - name: nightly-etl
    type: step-function
    operationId: arn:aws:states:us-east-1:123456789012:execution:nightly-etl:example

  - name: daily-report-query
    type: athena
    operationId: 00000000-0000-0000-0000-000000000000
    softFail: true
    athena:
      maxPollAttempts: 3
      sleepTime: 10s

  - name: partner-export
    type: http
    operationId: example-job
    http:
      url: https://api.example.com/jobs/{operationId}
      statusPath: $.state
      headers:
        Authorization: secret:partner-api-token
    pendingStatuses: [queued, running]
    successStatuses: [done]
    failureStatuses: [error, cancelled]
`

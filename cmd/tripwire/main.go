package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dwsmith1983/tripwire/internal/commands"
)

var version = "dev"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(os.Getenv("TRIPWIRE_LOG_LEVEL"))})))
	commands.Version = version

	root := &cobra.Command{
		Use:   "tripwire",
		Short: "Completion sensors for asynchronous cloud operations",
		Long: `Tripwire checks whether a long-running operation (a Step Functions
execution, an Athena query, a Glue job run, ...) has finished. Each poke
classifies the reported status as pending, success or failure.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		commands.NewInitCmd(),
		commands.NewValidateCmd(),
		commands.NewPokeCmd(),
		commands.NewWaitCmd(),
		commands.NewStatusesCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return commands.ExitOK
	}
	var ee *commands.ExitError
	if errors.As(err, &ee) {
		if ee.Err != nil {
			fmt.Fprintln(os.Stderr, ee.Err)
		}
		return ee.Code
	}
	fmt.Fprintln(os.Stderr, err)
	return commands.ExitFailed
}

func logLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn
	}
	return l
}

package events

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// ConsoleSink writes events to a terminal with color-coded outcomes.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink creates a console sink writing to w, or stdout when w is nil.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleSink{w: w}
}

// Name returns the sink identifier.
func (s *ConsoleSink) Name() string { return "console" }

// Publish writes one line per event.
func (s *ConsoleSink) Publish(_ context.Context, event types.SensorEvent) error {
	var prefix string
	switch event.Outcome {
	case types.OutcomeSuccess:
		prefix = color.GreenString("[DONE]")
	case types.OutcomeSkipped:
		prefix = color.YellowString("[SKIP]")
	default:
		prefix = color.RedString("[FAIL]")
	}

	line := fmt.Sprintf("%s [%s] %s", prefix, event.Sensor, event.Status)
	if event.Message != "" {
		line += " " + event.Message
	}
	_, err := fmt.Fprintln(s.w, line)
	return err
}

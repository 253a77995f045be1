// Package testutil provides shared test doubles for tripwire packages.
package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dwsmith1983/tripwire/internal/status"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

// Compile-time interface satisfaction check.
var _ status.Provider = (*ScriptedProvider)(nil)

// ScriptedProvider returns Statuses in order, repeating the last one. A call
// whose zero-based index is in Errs returns that error instead.
type ScriptedProvider struct {
	Statuses    []types.Status
	Errs        map[int]error
	Output      string
	OutputLabel string

	calls atomic.Int32
	mu    sync.Mutex
	ids   []string
}

// Status implements status.Provider.
func (s *ScriptedProvider) Status(_ context.Context, operationID string) (status.Observation, error) {
	i := int(s.calls.Add(1)) - 1
	s.mu.Lock()
	s.ids = append(s.ids, operationID)
	s.mu.Unlock()

	if err, ok := s.Errs[i]; ok {
		return status.Observation{}, err
	}
	if len(s.Statuses) == 0 {
		return status.Observation{}, nil
	}
	if i >= len(s.Statuses) {
		i = len(s.Statuses) - 1
	}
	return status.Observation{Status: s.Statuses[i], Output: s.Output, OutputLabel: s.OutputLabel}, nil
}

// Calls returns how many times Status was called.
func (s *ScriptedProvider) Calls() int32 { return s.calls.Load() }

// OperationIDs returns the operation IDs Status was called with, in order.
func (s *ScriptedProvider) OperationIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}

// CaptureSink records every published event. Publish returns Err after recording.
type CaptureSink struct {
	SinkName string
	Err      error

	mu     sync.Mutex
	events []types.SensorEvent
}

// Name implements events.Sink.
func (c *CaptureSink) Name() string {
	if c.SinkName == "" {
		return "capture"
	}
	return c.SinkName
}

// Publish implements events.Sink.
func (c *CaptureSink) Publish(_ context.Context, e types.SensorEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return c.Err
}

// Events returns a copy of the recorded events.
func (c *CaptureSink) Events() []types.SensorEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.SensorEvent(nil), c.events...)
}

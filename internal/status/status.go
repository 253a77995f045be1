// Package status looks up the current state of external operations
// (queries, executions, job runs) on behalf of completion sensors.
package status

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// ErrOperationNotFound is returned when the external system has no record of
// the operation yet.
var ErrOperationNotFound = errors.New("operation not found")

// Observation is a single reading of an operation's state.
type Observation struct {
	Status      types.Status
	Output      string // diagnostic payload, empty when the system reports none
	OutputLabel string // what produced Output, e.g. "State Machine"
}

// Provider reports the current status of an operation.
type Provider interface {
	Status(ctx context.Context, operationID string) (Observation, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, operationID string) (Observation, error)

// Status calls f.
func (f ProviderFunc) Status(ctx context.Context, operationID string) (Observation, error) {
	return f(ctx, operationID)
}

// compactPayload normalizes a diagnostic payload. JSON documents are
// compacted; anything else is trimmed and returned as-is.
func compactPayload(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err == nil {
		return buf.String()
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}

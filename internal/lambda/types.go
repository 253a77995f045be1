// Package lambda provides shared types and initialization for Lambda handlers.
package lambda

import (
	"time"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// PokeRequest is the input to the poke Lambda. OperationID, when set,
// replaces Sensor.OperationID so one sensor definition can be reused across
// executions.
type PokeRequest struct {
	Sensor      types.SensorConfig `json:"sensor"`
	OperationID string             `json:"operationId,omitempty"`
}

// PokeResponse is returned for every invocation, including failed pokes, so
// a Step Functions Choice state can branch on Done and Outcome.
type PokeResponse struct {
	Done      bool                 `json:"done"`
	Outcome   types.PokeOutcome    `json:"outcome"`
	Status    types.Status         `json:"status,omitempty"`
	Category  types.StatusCategory `json:"category,omitempty"`
	Message   string               `json:"message,omitempty"`
	PokeID    string               `json:"pokeId,omitempty"`
	Sensor    string               `json:"sensor,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

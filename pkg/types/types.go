package types

import "time"

// PokeResult is the structured report of one poke.
type PokeResult struct {
	PokeID    string         `json:"pokeId"`
	Sensor    string         `json:"sensor"`
	Type      ProviderType   `json:"type"`
	Operation string         `json:"operationId,omitempty"`
	Status    Status         `json:"status,omitempty"`
	Category  StatusCategory `json:"category,omitempty"`
	Outcome   PokeOutcome    `json:"outcome"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Done reports whether the monitored operation completed successfully.
func (r PokeResult) Done() bool {
	return r.Outcome == OutcomeSuccess
}

// SensorEvent is published when a sensor reaches a terminal outcome.
type SensorEvent struct {
	EventID   string       `json:"eventId"`
	Sensor    string       `json:"sensor"`
	Type      ProviderType `json:"type"`
	Operation string       `json:"operationId,omitempty"`
	Outcome   PokeOutcome  `json:"outcome"`
	Status    Status       `json:"status,omitempty"`
	Message   string       `json:"message,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

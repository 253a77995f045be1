// Package metrics exposes runtime counters via expvar.
package metrics

import (
	"expvar"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

var (
	PokesTotal      = expvar.NewInt("pokes_total")
	PokesPending    = expvar.NewInt("pokes_pending")
	PokesSucceeded  = expvar.NewInt("pokes_succeeded")
	PokesFailed     = expvar.NewInt("pokes_failed")
	PokesSkipped    = expvar.NewInt("pokes_skipped")
	PokeErrors      = expvar.NewInt("poke_errors")
	UnknownStatuses = expvar.NewInt("unknown_statuses")
	BreakerOpened   = expvar.NewInt("breaker_opened")
	EventsPublished = expvar.NewInt("events_published")
	EventsFailed    = expvar.NewInt("events_failed")
	WaitsTimedOut   = expvar.NewInt("waits_timed_out")
)

// RecordOutcome bumps the counters for one poke.
func RecordOutcome(o types.PokeOutcome) {
	PokesTotal.Add(1)
	switch o {
	case types.OutcomePending:
		PokesPending.Add(1)
	case types.OutcomeSuccess:
		PokesSucceeded.Add(1)
	case types.OutcomeFailed:
		PokesFailed.Add(1)
	case types.OutcomeSkipped:
		PokesSkipped.Add(1)
	case types.OutcomeError:
		PokeErrors.Add(1)
	}
}

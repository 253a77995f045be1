package sensor

import (
	"fmt"
	"sort"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// Classification maps a provider's status vocabulary onto the three
// categories that drive a poke. The sets are disjoint; any status outside
// them classifies as CategoryUnknown.
type Classification struct {
	categories map[types.Status]types.StatusCategory
}

// NewClassification builds a table from the three status sets. A status
// listed in more than one set is rejected. A table without any success or
// failure status is rejected as well, since a sensor using it could never
// finish.
func NewClassification(pending, success, failure []types.Status) (Classification, error) {
	c := Classification{categories: make(map[types.Status]types.StatusCategory, len(pending)+len(success)+len(failure))}
	add := func(statuses []types.Status, cat types.StatusCategory) error {
		for _, s := range statuses {
			if s == "" {
				return fmt.Errorf("empty status in %s set", cat)
			}
			if prev, ok := c.categories[s]; ok && prev != cat {
				return fmt.Errorf("status %q listed as both %s and %s", s, prev, cat)
			}
			c.categories[s] = cat
		}
		return nil
	}
	if err := add(pending, types.CategoryPending); err != nil {
		return Classification{}, err
	}
	if err := add(success, types.CategorySuccess); err != nil {
		return Classification{}, err
	}
	if err := add(failure, types.CategoryFailure); err != nil {
		return Classification{}, err
	}
	if len(success) == 0 {
		return Classification{}, fmt.Errorf("at least one success status is required")
	}
	if len(failure) == 0 {
		return Classification{}, fmt.Errorf("at least one failure status is required")
	}
	return c, nil
}

// Classify returns the category of s.
func (c Classification) Classify(s types.Status) types.StatusCategory {
	if cat, ok := c.categories[s]; ok {
		return cat
	}
	return types.CategoryUnknown
}

// Statuses returns the sorted statuses in category cat.
func (c Classification) Statuses(cat types.StatusCategory) []types.Status {
	var out []types.Status
	for s, sc := range c.categories {
		if sc == cat {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// statusTable is the built-in vocabulary of one provider type.
type statusTable struct {
	label   string // display name used in failure messages
	pending []types.Status
	success []types.Status
	failure []types.Status
}

// Built-in tables. DynamoDB, Lambda and HTTP providers report user-defined
// statuses, so their tables carry a generic vocabulary that configuration
// normally overrides.
var tables = map[types.ProviderType]statusTable{
	types.ProviderAthena: {
		label:   "Athena",
		pending: []types.Status{"QUEUED", "RUNNING"},
		success: []types.Status{"SUCCEEDED"},
		failure: []types.Status{"FAILED", "CANCELLED"},
	},
	types.ProviderStepFunction: {
		label:   "Step Function",
		pending: []types.Status{"RUNNING", "PENDING_REDRIVE"},
		success: []types.Status{"SUCCEEDED"},
		failure: []types.Status{"FAILED", "TIMED_OUT", "ABORTED"},
	},
	types.ProviderGlue: {
		label:   "Glue",
		pending: []types.Status{"STARTING", "RUNNING", "STOPPING", "WAITING"},
		success: []types.Status{"SUCCEEDED"},
		failure: []types.Status{"FAILED", "STOPPED", "TIMEOUT", "ERROR", "EXPIRED"},
	},
	types.ProviderEMR: {
		label:   "EMR",
		pending: []types.Status{"PENDING", "CANCEL_PENDING", "RUNNING"},
		success: []types.Status{"COMPLETED"},
		failure: []types.Status{"CANCELLED", "FAILED", "INTERRUPTED"},
	},
	types.ProviderEMRServerless: {
		label:   "EMR Serverless",
		pending: []types.Status{"SUBMITTED", "PENDING", "SCHEDULED", "RUNNING", "CANCELLING", "QUEUED"},
		success: []types.Status{"SUCCESS"},
		failure: []types.Status{"FAILED", "CANCELLED"},
	},
	types.ProviderDynamoDB: {
		label:   "DynamoDB",
		pending: []types.Status{"PENDING", "RUNNING"},
		success: []types.Status{"SUCCEEDED"},
		failure: []types.Status{"FAILED"},
	},
	types.ProviderLambda: {
		label:   "Lambda",
		pending: []types.Status{"PENDING", "RUNNING"},
		success: []types.Status{"SUCCEEDED"},
		failure: []types.Status{"FAILED"},
	},
	types.ProviderHTTP: {
		label:   "HTTP",
		pending: []types.Status{"PENDING", "RUNNING"},
		success: []types.Status{"SUCCEEDED"},
		failure: []types.Status{"FAILED"},
	},
	types.ProviderAirflow: {
		label:   "Airflow",
		pending: []types.Status{"queued", "running"},
		success: []types.Status{"success"},
		failure: []types.Status{"failed"},
	},
	// Databricks reports result_state once a run is TERMINATED and
	// life_cycle_state otherwise.
	types.ProviderDatabricks: {
		label:   "Databricks",
		pending: []types.Status{"PENDING", "QUEUED", "RUNNING", "TERMINATING", "BLOCKED", "WAITING_FOR_RETRY"},
		success: []types.Status{"SUCCESS"},
		failure: []types.Status{
			"FAILED", "TIMEDOUT", "CANCELED", "SUCCESS_WITH_FAILURES", "MAXIMUM_CONCURRENT_RUNS_REACHED",
			"EXCLUDED", "UPSTREAM_FAILED", "UPSTREAM_CANCELED", "DISABLED",
			"SKIPPED", "INTERNAL_ERROR", "TERMINATED",
		},
	},
}

// TableFor returns the built-in classification for a provider type.
func TableFor(t types.ProviderType) (Classification, bool) {
	tbl, ok := tables[t]
	if !ok {
		return Classification{}, false
	}
	c, err := NewClassification(tbl.pending, tbl.success, tbl.failure)
	if err != nil {
		return Classification{}, false
	}
	return c, true
}

// Label returns the display name of a provider type, e.g. "Step Function".
func Label(t types.ProviderType) string {
	if tbl, ok := tables[t]; ok {
		return tbl.label
	}
	return string(t)
}

// ClassificationFor resolves the table for cfg: the built-in sets, with each
// non-empty override list replacing the corresponding set.
func ClassificationFor(cfg types.SensorConfig) (Classification, error) {
	tbl, ok := tables[cfg.Type]
	if !ok {
		return Classification{}, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
	pending, success, failure := tbl.pending, tbl.success, tbl.failure
	if len(cfg.PendingStatuses) > 0 {
		pending = cfg.PendingStatuses
	}
	if len(cfg.SuccessStatuses) > 0 {
		success = cfg.SuccessStatuses
	}
	if len(cfg.FailureStatuses) > 0 {
		failure = cfg.FailureStatuses
	}
	return NewClassification(pending, success, failure)
}

// Package types defines the public domain types for tripwire completion sensors.
package types

// ProviderType identifies the external system a sensor polls.
type ProviderType string

// ProviderType values enumerate the supported status providers.
const (
	ProviderAthena        ProviderType = "athena"
	ProviderStepFunction  ProviderType = "step-function"
	ProviderGlue          ProviderType = "glue"
	ProviderEMR           ProviderType = "emr"
	ProviderEMRServerless ProviderType = "emr-serverless"
	ProviderDynamoDB      ProviderType = "dynamodb"
	ProviderLambda        ProviderType = "lambda"
	ProviderHTTP          ProviderType = "http"
	ProviderAirflow       ProviderType = "airflow"
	ProviderDatabricks    ProviderType = "databricks"
)

// ProviderTypes lists every supported provider type in display order.
var ProviderTypes = []ProviderType{
	ProviderAthena,
	ProviderStepFunction,
	ProviderGlue,
	ProviderEMR,
	ProviderEMRServerless,
	ProviderDynamoDB,
	ProviderLambda,
	ProviderHTTP,
	ProviderAirflow,
	ProviderDatabricks,
}

// Valid reports whether p is a known provider type.
func (p ProviderType) Valid() bool {
	for _, t := range ProviderTypes {
		if t == p {
			return true
		}
	}
	return false
}

// Status is a raw status value reported by an external system, e.g. "RUNNING".
type Status string

// StatusCategory is the bucket a Status falls into for a given provider.
type StatusCategory string

const (
	// CategoryPending means the operation is still in progress; keep polling.
	CategoryPending StatusCategory = "pending"
	// CategorySuccess means the operation completed successfully.
	CategorySuccess StatusCategory = "success"
	// CategoryFailure means the operation reached a terminal failure.
	CategoryFailure StatusCategory = "failure"
	// CategoryUnknown means the status is not in the provider's table.
	CategoryUnknown StatusCategory = "unknown"
)

// PokeOutcome is the externally reported result of a single poke.
type PokeOutcome string

const (
	OutcomePending PokeOutcome = "pending"
	OutcomeSuccess PokeOutcome = "success"
	OutcomeSkipped PokeOutcome = "skipped"
	OutcomeFailed  PokeOutcome = "failed"
	OutcomeError   PokeOutcome = "error"
)

// Terminal reports whether the outcome ends polling.
func (o PokeOutcome) Terminal() bool {
	switch o {
	case OutcomeSuccess, OutcomeSkipped, OutcomeFailed:
		return true
	default:
		return false
	}
}

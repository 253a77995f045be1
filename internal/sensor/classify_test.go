package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

func TestNewClassification(t *testing.T) {
	c, err := NewClassification(
		[]types.Status{"QUEUED", "RUNNING"},
		[]types.Status{"SUCCEEDED"},
		[]types.Status{"FAILED", "CANCELLED"},
	)
	require.NoError(t, err)

	assert.Equal(t, types.CategoryPending, c.Classify("QUEUED"))
	assert.Equal(t, types.CategorySuccess, c.Classify("SUCCEEDED"))
	assert.Equal(t, types.CategoryFailure, c.Classify("CANCELLED"))
	assert.Equal(t, types.CategoryUnknown, c.Classify("succeeded"))
	assert.Equal(t, types.CategoryUnknown, c.Classify(""))
	assert.Equal(t, []types.Status{"CANCELLED", "FAILED"}, c.Statuses(types.CategoryFailure))
}

func TestNewClassification_Rejects(t *testing.T) {
	tests := []struct {
		name                      string
		pending, success, failure []types.Status
		want                      string
	}{
		{"overlap", []types.Status{"RUNNING"}, []types.Status{"RUNNING"}, []types.Status{"FAILED"}, "listed as both"},
		{"no success", []types.Status{"RUNNING"}, nil, []types.Status{"FAILED"}, "success status"},
		{"no failure", []types.Status{"RUNNING"}, []types.Status{"DONE"}, nil, "failure status"},
		{"empty status", []types.Status{""}, []types.Status{"DONE"}, []types.Status{"FAILED"}, "empty status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClassification(tt.pending, tt.success, tt.failure)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestTableFor_AllProviders(t *testing.T) {
	for _, pt := range types.ProviderTypes {
		c, ok := TableFor(pt)
		require.True(t, ok, "provider %s", pt)
		assert.NotEmpty(t, c.Statuses(types.CategorySuccess), "provider %s", pt)
		assert.NotEmpty(t, c.Statuses(types.CategoryFailure), "provider %s", pt)
		assert.NotEqual(t, string(pt), Label(pt), "provider %s has no label", pt)
	}

	_, ok := TableFor("bogus")
	assert.False(t, ok)
}

func TestTableFor_StepFunction(t *testing.T) {
	c, ok := TableFor(types.ProviderStepFunction)
	require.True(t, ok)
	assert.Equal(t, []types.Status{"PENDING_REDRIVE", "RUNNING"}, c.Statuses(types.CategoryPending))
	assert.Equal(t, []types.Status{"SUCCEEDED"}, c.Statuses(types.CategorySuccess))
	assert.Equal(t, []types.Status{"ABORTED", "FAILED", "TIMED_OUT"}, c.Statuses(types.CategoryFailure))
}

func TestTableFor_ExternalSchedulers(t *testing.T) {
	tests := []struct {
		pt     types.ProviderType
		status types.Status
		want   types.StatusCategory
	}{
		{types.ProviderAirflow, "queued", types.CategoryPending},
		{types.ProviderAirflow, "running", types.CategoryPending},
		{types.ProviderAirflow, "success", types.CategorySuccess},
		{types.ProviderAirflow, "failed", types.CategoryFailure},
		{types.ProviderAirflow, "SUCCESS", types.CategoryUnknown},
		{types.ProviderDatabricks, "PENDING", types.CategoryPending},
		{types.ProviderDatabricks, "WAITING_FOR_RETRY", types.CategoryPending},
		{types.ProviderDatabricks, "TERMINATING", types.CategoryPending},
		{types.ProviderDatabricks, "SUCCESS", types.CategorySuccess},
		{types.ProviderDatabricks, "FAILED", types.CategoryFailure},
		{types.ProviderDatabricks, "CANCELED", types.CategoryFailure},
		{types.ProviderDatabricks, "INTERNAL_ERROR", types.CategoryFailure},
		{types.ProviderDatabricks, "SKIPPED", types.CategoryFailure},
		{types.ProviderDatabricks, "TERMINATED", types.CategoryFailure},
	}
	for _, tt := range tests {
		t.Run(string(tt.pt)+"/"+string(tt.status), func(t *testing.T) {
			c, ok := TableFor(tt.pt)
			require.True(t, ok)
			assert.Equal(t, tt.want, c.Classify(tt.status))
		})
	}
	assert.Equal(t, "Airflow", Label(types.ProviderAirflow))
	assert.Equal(t, "Databricks", Label(types.ProviderDatabricks))
}

func TestClassificationFor_PartialOverride(t *testing.T) {
	cfg := types.SensorConfig{
		Type:            types.ProviderGlue,
		FailureStatuses: []types.Status{"FAILED"},
	}
	c, err := ClassificationFor(cfg)
	require.NoError(t, err)

	assert.Equal(t, types.CategoryFailure, c.Classify("FAILED"))
	assert.Equal(t, types.CategoryUnknown, c.Classify("STOPPED"))
	assert.Equal(t, types.CategoryPending, c.Classify("RUNNING"))
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, types.OutcomeSuccess, OutcomeOf(true, nil))
	assert.Equal(t, types.OutcomePending, OutcomeOf(false, nil))
	assert.Equal(t, types.OutcomeSkipped, OutcomeOf(false, &SkipError{Message: "x"}))
	assert.Equal(t, types.OutcomeFailed, OutcomeOf(false, &FailureError{Message: "x"}))
	assert.Equal(t, types.OutcomeFailed, OutcomeOf(false, &UnknownStatusError{Status: "X"}))
}

func TestFailureMessage(t *testing.T) {
	assert.Equal(t, "Glue sensor failed", failureMessage(types.ProviderGlue, "Job Run", ""))
	assert.Equal(t, "EMR sensor failed. Step Output: boom", failureMessage(types.ProviderEMR, "Step", "boom"))
	assert.Equal(t, "HTTP sensor failed. Diagnostic Output: boom", failureMessage(types.ProviderHTTP, "", "boom"))
}

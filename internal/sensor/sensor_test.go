package sensor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/dwsmith1983/tripwire/internal/status"
	"github.com/dwsmith1983/tripwire/pkg/types"
)

const executionARN = "arn:aws:states:us-east-1:123456789012:execution:pseudo-state-machine:020f5b16-b1a1-4149-946f-92dd32d97934"

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixedStatus(st types.Status, output, label string) status.Provider {
	return status.ProviderFunc(func(_ context.Context, _ string) (status.Observation, error) {
		return status.Observation{Status: st, Output: output, OutputLabel: label}, nil
	})
}

func athenaConfig() types.SensorConfig {
	return types.SensorConfig{
		Name:        "test_athena_sensor",
		Type:        types.ProviderAthena,
		OperationID: "abc",
		ConnID:      "aws_default",
	}
}

func sfnConfig() types.SensorConfig {
	return types.SensorConfig{
		Name:        "step_function_execution_sensor",
		Type:        types.ProviderStepFunction,
		OperationID: executionARN,
		ConnID:      "aws_non_default",
		Region:      "us-west-2",
	}
}

func newSensor(t *testing.T, cfg types.SensorConfig, p status.Provider, opts ...Option) *Sensor {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger)}, opts...)
	s, err := New(cfg, p, opts...)
	require.NoError(t, err)
	return s
}

func TestNew_KeepsConfiguration(t *testing.T) {
	cfg := sfnConfig()
	s := newSensor(t, cfg, fixedStatus("RUNNING", "", ""))

	got := s.Config()
	assert.Equal(t, "step_function_execution_sensor", got.Name)
	assert.Equal(t, executionARN, got.OperationID)
	assert.Equal(t, "aws_non_default", got.ConnID)
	assert.Equal(t, "us-west-2", got.Region)
}

func TestNew_ConfigIsCopied(t *testing.T) {
	cfg := athenaConfig()
	cfg.FailureStatuses = []types.Status{"FAILED", "CANCELLED"}
	s := newSensor(t, cfg, fixedStatus("FAILED", "", ""))

	cfg.OperationID = "changed"
	cfg.FailureStatuses[0] = "SOMETHING_ELSE"

	assert.Equal(t, "abc", s.Config().OperationID)
	assert.Equal(t, types.CategoryFailure, s.Classification().Classify("FAILED"))
}

func TestNew_HeadersAreCopied(t *testing.T) {
	cfg := types.SensorConfig{
		Name:        "dag",
		Type:        types.ProviderAirflow,
		OperationID: "manual__1",
		Airflow:     &types.AirflowSensorConfig{URL: "http://airflow", DagID: "d", Headers: map[string]string{"Authorization": "secret:a"}},
		Databricks:  &types.DatabricksSensorConfig{WorkspaceURL: "https://dbc", Headers: map[string]string{"Authorization": "secret:b"}},
	}
	s := newSensor(t, cfg, fixedStatus("running", "", ""))

	cfg.Airflow.Headers["Authorization"] = "changed"
	cfg.Databricks.Headers["Authorization"] = "changed"
	cfg.Airflow.DagID = "other"

	got := s.Config()
	assert.Equal(t, "secret:a", got.Airflow.Headers["Authorization"])
	assert.Equal(t, "secret:b", got.Databricks.Headers["Authorization"])
	assert.Equal(t, "d", got.Airflow.DagID)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(athenaConfig(), nil)
	assert.ErrorContains(t, err, "status provider is required")

	cfg := athenaConfig()
	cfg.Type = "bogus"
	_, err = New(cfg, fixedStatus("RUNNING", "", ""))
	assert.ErrorContains(t, err, "unknown provider type")

	cfg = athenaConfig()
	cfg.PendingStatuses = []types.Status{"SUCCEEDED"}
	_, err = New(cfg, fixedStatus("RUNNING", "", ""))
	assert.ErrorContains(t, err, "listed as both")
}

func TestAthenaPoke(t *testing.T) {
	tests := []struct {
		status types.Status
		done   bool
	}{
		{"SUCCEEDED", true},
		{"RUNNING", false},
		{"QUEUED", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			s := newSensor(t, athenaConfig(), fixedStatus(tt.status, "", ""))
			done, err := s.Poke(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.done, done)
		})
	}
}

func TestAthenaPoke_TerminalFailure(t *testing.T) {
	for _, st := range []types.Status{"FAILED", "CANCELLED"} {
		t.Run(string(st), func(t *testing.T) {
			s := newSensor(t, athenaConfig(), fixedStatus(st, "", "Query"))
			done, err := s.Poke(context.Background())
			assert.False(t, done)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "Athena sensor failed")

			var fe *FailureError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, st, fe.Status)
			assert.Equal(t, "abc", fe.OperationID)
			assert.ErrorIs(t, err, ErrFailed)
			assert.False(t, IsSkip(err))
		})
	}
}

func TestFailPoke_SoftFail(t *testing.T) {
	tests := []struct {
		name     string
		cfg      types.SensorConfig
		status   types.Status
		softFail bool
		sentinel error
		label    string
	}{
		{"athena failed", athenaConfig(), "FAILED", false, ErrFailed, "Athena"},
		{"athena failed soft", athenaConfig(), "FAILED", true, ErrSkip, "Athena"},
		{"athena cancelled", athenaConfig(), "CANCELLED", false, ErrFailed, "Athena"},
		{"athena cancelled soft", athenaConfig(), "CANCELLED", true, ErrSkip, "Athena"},
		{"sfn failed soft", sfnConfig(), "FAILED", true, ErrSkip, "Step Function"},
		{"sfn timed out soft", sfnConfig(), "TIMED_OUT", true, ErrSkip, "Step Function"},
		{"sfn aborted soft", sfnConfig(), "ABORTED", true, ErrSkip, "Step Function"},
		{"sfn aborted", sfnConfig(), "ABORTED", false, ErrFailed, "Step Function"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.SoftFail = tt.softFail
			s := newSensor(t, cfg, fixedStatus(tt.status, "", ""))

			_, err := s.Poke(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, err.Error(), tt.label+" sensor failed")
			assert.True(t, IsTerminal(err))

			if tt.softFail {
				var skip *SkipError
				require.ErrorAs(t, err, &skip)
				assert.Equal(t, tt.status, skip.Status)
				assert.Equal(t, cfg.OperationID, skip.OperationID)
			}
		})
	}
}

func TestStepFunctionPoke(t *testing.T) {
	s := newSensor(t, sfnConfig(), fixedStatus("RUNNING", "", "State Machine"))
	done, err := s.Poke(context.Background())
	require.NoError(t, err)
	assert.False(t, done)

	s = newSensor(t, sfnConfig(), fixedStatus("SUCCEEDED", `{"ok": true}`, "State Machine"))
	done, err = s.Poke(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
}

func TestStepFunctionPoke_Exceptions(t *testing.T) {
	for _, st := range []types.Status{"FAILED", "TIMED_OUT", "ABORTED"} {
		t.Run(string(st), func(t *testing.T) {
			s := newSensor(t, sfnConfig(), fixedStatus(st, "", "State Machine"))
			_, err := s.Poke(context.Background())
			assert.ErrorIs(t, err, ErrFailed)
		})
	}
}

func TestStepFunctionPoke_FailureIncludesOutput(t *testing.T) {
	for _, softFail := range []bool{false, true} {
		cfg := sfnConfig()
		cfg.SoftFail = softFail
		p := status.ProviderFunc(func(_ context.Context, id string) (status.Observation, error) {
			assert.Equal(t, executionARN, id)
			return status.Observation{Status: "FAILED", Output: `{"test":"test"}`, OutputLabel: "State Machine"}, nil
		})
		s := newSensor(t, cfg, p)

		_, err := s.Poke(context.Background())
		require.Error(t, err)
		assert.Equal(t, `Step Function sensor failed. State Machine Output: {"test":"test"}`, err.Error())
		assert.Equal(t, softFail, IsSkip(err))
	}
}

func TestPoke_UnknownStatus(t *testing.T) {
	for _, softFail := range []bool{false, true} {
		cfg := athenaConfig()
		cfg.SoftFail = softFail
		s := newSensor(t, cfg, fixedStatus("MYSTERY", "", ""))

		done, err := s.Poke(context.Background())
		assert.False(t, done)
		assert.ErrorIs(t, err, ErrUnknownStatus)
		assert.False(t, IsSkip(err))

		var ue *UnknownStatusError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, types.Status("MYSTERY"), ue.Status)
		assert.Contains(t, err.Error(), `unknown status "MYSTERY"`)
	}
}

func TestPoke_ProviderError(t *testing.T) {
	cfg := athenaConfig()
	cfg.SoftFail = true
	p := status.ProviderFunc(func(context.Context, string) (status.Observation, error) {
		return status.Observation{}, errors.New("throttled")
	})
	s := newSensor(t, cfg, p)

	done, err := s.Poke(context.Background())
	assert.False(t, done)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.False(t, IsTerminal(err))
	assert.Equal(t, types.OutcomeError, OutcomeOf(done, err))
}

func TestPoke_StatusOverrides(t *testing.T) {
	cfg := types.SensorConfig{
		Name:            "control-table",
		Type:            types.ProviderDynamoDB,
		OperationID:     "job-1",
		PendingStatuses: []types.Status{"IN_PROGRESS"},
		SuccessStatuses: []types.Status{"DONE"},
		FailureStatuses: []types.Status{"BROKEN"},
	}

	s := newSensor(t, cfg, fixedStatus("DONE", "", ""))
	done, err := s.Poke(context.Background())
	require.NoError(t, err)
	assert.True(t, done)

	s = newSensor(t, cfg, fixedStatus("SUCCEEDED", "", ""))
	_, err = s.Poke(context.Background())
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestResult(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newSensor(t, athenaConfig(), fixedStatus("CANCELLED", "user cancelled", "Query"), WithClock(func() time.Time { return now }))

	res, err := s.Result(context.Background())
	require.Error(t, err)
	assert.NotEmpty(t, res.PokeID)
	assert.Equal(t, "test_athena_sensor", res.Sensor)
	assert.Equal(t, types.ProviderAthena, res.Type)
	assert.Equal(t, "abc", res.Operation)
	assert.Equal(t, types.Status("CANCELLED"), res.Status)
	assert.Equal(t, types.CategoryFailure, res.Category)
	assert.Equal(t, types.OutcomeFailed, res.Outcome)
	assert.Equal(t, "Athena sensor failed. Query Output: user cancelled", res.Message)
	assert.Equal(t, now, res.Timestamp)
	assert.False(t, res.Done())
}

func TestNotifier_TerminalOnly(t *testing.T) {
	var got []types.PokeResult
	n := NotifierFunc(func(_ context.Context, r types.PokeResult) { got = append(got, r) })

	current := types.Status("RUNNING")
	p := status.ProviderFunc(func(context.Context, string) (status.Observation, error) {
		return status.Observation{Status: current}, nil
	})
	s := newSensor(t, sfnConfig(), p, WithNotifier(n))

	_, err := s.Poke(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	current = "SUCCEEDED"
	_, err = s.Poke(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.OutcomeSuccess, got[0].Outcome)
}

func TestPoke_Instrumentation(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	s := newSensor(t, sfnConfig(), fixedStatus("ABORTED", "", ""), WithTracerProvider(tp), WithMeterProvider(mp))
	_, err := s.Poke(context.Background())
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "sensor.poke", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), attribute.String("sensor.outcome", "failed"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	sum, ok := rm.ScopeMetrics[0].Metrics[0].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

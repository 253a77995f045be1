package status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

func TestAirflowStatus(t *testing.T) {
	tests := []struct {
		name  string
		state string
		note  string
	}{
		{"queued", "queued", ""},
		{"running", "running", ""},
		{"success", "success", ""},
		{"failed", "failed", "upstream partition missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.EscapedPath()
				gotAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"dag_id":"nightly","dag_run_id":"manual__1","state":"` + tt.state + `","note":"` + tt.note + `"}`))
			}))
			defer srv.Close()

			secrets := &mockSecretsClient{values: map[string]string{"airflow-token": "Basic YWRtaW46YWRtaW4="}}
			p, err := NewAirflowProvider(srv.Client(), secrets, &types.AirflowSensorConfig{
				URL:     srv.URL + "/",
				DagID:   "nightly",
				Headers: map[string]string{"Authorization": "secret:airflow-token"},
			})
			require.NoError(t, err)

			obs, err := p.Status(context.Background(), "manual__2024-01-01T00:00:00+00:00")
			require.NoError(t, err)
			assert.Equal(t, types.Status(tt.state), obs.Status)
			assert.Equal(t, tt.note, obs.Output)
			assert.Equal(t, "Note", obs.OutputLabel)
			assert.Equal(t, "/api/v1/dags/nightly/dagRuns/manual__2024-01-01T00:00:00+00:00", gotPath)
			assert.Equal(t, "Basic YWRtaW46YWRtaW4=", gotAuth)
		})
	}
}

func TestAirflowStatus_Errors(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		body   string
		want   string
		target error
	}{
		{"missing state", http.StatusOK, `{"dag_id":"nightly"}`, "response missing state field", nil},
		{"unknown run", http.StatusNotFound, `{"title":"DAGRun not found"}`, "", ErrOperationNotFound},
		{"unauthorized", http.StatusUnauthorized, "denied", "endpoint returned 401: denied", nil},
		{"not json", http.StatusOK, "<html>", "decoding response", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := NewAirflowProvider(srv.Client(), nil, &types.AirflowSensorConfig{URL: srv.URL, DagID: "nightly"})
			require.NoError(t, err)

			_, err = p.Status(context.Background(), "run-1")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "airflow status")
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestAirflowStatus_RequiresRunID(t *testing.T) {
	p, err := NewAirflowProvider(nil, nil, &types.AirflowSensorConfig{URL: "http://airflow", DagID: "d"})
	require.NoError(t, err)
	_, err = p.Status(context.Background(), "")
	assert.ErrorContains(t, err, "dag run id is required")
}

func TestNewAirflowProvider_Validation(t *testing.T) {
	_, err := NewAirflowProvider(nil, nil, nil)
	assert.ErrorContains(t, err, "url is required")

	_, err = NewAirflowProvider(nil, nil, &types.AirflowSensorConfig{URL: "http://airflow"})
	assert.ErrorContains(t, err, "dagId is required")

	_, err = NewAirflowProvider(nil, nil, &types.AirflowSensorConfig{
		URL:     "http://airflow",
		DagID:   "d",
		Headers: map[string]string{"Authorization": "secret:token"},
	})
	assert.ErrorContains(t, err, "no secrets client")

	p, err := NewAirflowProvider(nil, nil, &types.AirflowSensorConfig{URL: "http://airflow/", DagID: "d", Timeout: 7})
	require.NoError(t, err)
	assert.Equal(t, "http://airflow", p.baseURL)
	assert.Equal(t, int64(7), int64(p.rest.client.Timeout.Seconds()))
}

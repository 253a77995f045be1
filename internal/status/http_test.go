package status

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

type mockSecretsClient struct {
	values map[string]string
	calls  int
}

func (m *mockSecretsClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	m.calls++
	v, ok := m.values[aws.ToString(params.SecretId)]
	if !ok {
		return nil, assert.AnError
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestHTTPStatus(t *testing.T) {
	var gotPath, gotAuth, gotTenant string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotTenant = r.Header.Get("X-Tenant")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"run":{"state":"FAILED","error":{"reason":"quota exceeded"}}}`))
	}))
	defer srv.Close()

	t.Setenv("TRIPWIRE_TEST_TENANT", "acme")
	secrets := &mockSecretsClient{values: map[string]string{"prod/api-token": "Bearer s3cr3t"}}
	p, err := NewHTTPProvider(srv.Client(), secrets, &types.HTTPSensorConfig{
		URL:        srv.URL + "/runs/{operationId}",
		StatusPath: "$.run.state",
		OutputPath: "$.run.error",
		Headers: map[string]string{
			"Authorization": "secret:prod/api-token",
			"X-Tenant":      "${TRIPWIRE_TEST_TENANT}",
		},
	})
	require.NoError(t, err)

	obs, err := p.Status(context.Background(), "run 1")
	require.NoError(t, err)
	assert.Equal(t, types.Status("FAILED"), obs.Status)
	assert.Equal(t, `{"reason":"quota exceeded"}`, obs.Output)
	assert.Equal(t, "Response", obs.OutputLabel)
	assert.Equal(t, "/runs/run%201", gotPath)
	assert.Equal(t, "Bearer s3cr3t", gotAuth)
	assert.Equal(t, "acme", gotTenant)
	assert.Equal(t, 1, secrets.calls)
}

func TestHTTPStatus_NonStringStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":2}`))
	}))
	defer srv.Close()

	p, err := NewHTTPProvider(srv.Client(), nil, &types.HTTPSensorConfig{URL: srv.URL, StatusPath: "$.code"})
	require.NoError(t, err)

	obs, err := p.Status(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, types.Status("2"), obs.Status)
}

func TestHTTPStatus_ResponseErrors(t *testing.T) {
	tests := []struct {
		name   string
		code   int
		body   string
		want   string
		target error
	}{
		{"not found", http.StatusNotFound, `{}`, "", ErrOperationNotFound},
		{"server error", http.StatusBadGateway, "upstream down", "endpoint returned 502: upstream down", nil},
		{"not json", http.StatusOK, "<html>", "decoding response", nil},
		{"no status", http.StatusOK, `{"other":1}`, "status not found", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p, err := NewHTTPProvider(srv.Client(), nil, &types.HTTPSensorConfig{URL: srv.URL, StatusPath: "$.status"})
			require.NoError(t, err)

			_, err = p.Status(context.Background(), "x")
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
			if tt.want != "" {
				assert.Contains(t, err.Error(), tt.want)
			}
		})
	}
}

func TestNewHTTPProvider_Validation(t *testing.T) {
	_, err := NewHTTPProvider(nil, nil, &types.HTTPSensorConfig{StatusPath: "$.s"})
	assert.ErrorContains(t, err, "url is required")

	_, err = NewHTTPProvider(nil, nil, &types.HTTPSensorConfig{URL: "http://x"})
	assert.ErrorContains(t, err, "statusPath is required")

	_, err = NewHTTPProvider(nil, nil, &types.HTTPSensorConfig{
		URL:        "http://x",
		StatusPath: "$.s",
		Headers:    map[string]string{"Authorization": "secret:token"},
	})
	assert.ErrorContains(t, err, "no secrets client")

	p, err := NewHTTPProvider(nil, nil, &types.HTTPSensorConfig{URL: "http://x", StatusPath: "$.s", Timeout: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), int64(p.rest.client.Timeout.Seconds()))
}

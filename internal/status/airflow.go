package status

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// AirflowProvider reads DAG run state from the Airflow 2 stable REST API.
type AirflowProvider struct {
	rest    restClient
	baseURL string
	dagID   string
}

// NewAirflowProvider creates an Airflow DAG run provider. secrets may be nil
// when no header references a secret.
func NewAirflowProvider(client *http.Client, secrets SecretsAPI, cfg *types.AirflowSensorConfig) (*AirflowProvider, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("airflow: url is required")
	}
	if cfg.DagID == "" {
		return nil, fmt.Errorf("airflow: dagId is required")
	}
	rest, err := newRESTClient("airflow", client, secrets, cfg.Headers, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &AirflowProvider{rest: rest, baseURL: strings.TrimRight(cfg.URL, "/"), dagID: cfg.DagID}, nil
}

type airflowDagRun struct {
	State string `json:"state"`
	Note  string `json:"note"`
}

// Status implements Provider. operationID is the dag run ID.
func (p *AirflowProvider) Status(ctx context.Context, operationID string) (Observation, error) {
	if operationID == "" {
		return Observation{}, fmt.Errorf("airflow status: dag run id is required")
	}
	target := p.baseURL + "/api/v1/dags/" + url.PathEscape(p.dagID) + "/dagRuns/" + url.PathEscape(operationID)

	var run airflowDagRun
	if err := p.rest.getJSON(ctx, target, &run); err != nil {
		return Observation{}, err
	}
	if run.State == "" {
		return Observation{}, fmt.Errorf("airflow status: response missing state field")
	}
	return Observation{Status: types.Status(run.State), Output: run.Note, OutputLabel: "Note"}, nil
}

package status

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// lifeCycleTerminated is the Databricks life cycle state whose result_state
// carries the outcome.
const lifeCycleTerminated = "TERMINATED"

// DatabricksProvider reads job run state from the Databricks Jobs 2.1 API.
type DatabricksProvider struct {
	rest         restClient
	workspaceURL string
}

// NewDatabricksProvider creates a Databricks job run provider. secrets may be
// nil when no header references a secret.
func NewDatabricksProvider(client *http.Client, secrets SecretsAPI, cfg *types.DatabricksSensorConfig) (*DatabricksProvider, error) {
	if cfg == nil || cfg.WorkspaceURL == "" {
		return nil, fmt.Errorf("databricks: workspaceUrl is required")
	}
	rest, err := newRESTClient("databricks", client, secrets, cfg.Headers, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &DatabricksProvider{rest: rest, workspaceURL: strings.TrimRight(cfg.WorkspaceURL, "/")}, nil
}

type databricksRun struct {
	State struct {
		LifeCycleState string `json:"life_cycle_state"`
		ResultState    string `json:"result_state"`
		StateMessage   string `json:"state_message"`
	} `json:"state"`
}

// Status implements Provider. operationID is the run ID. A terminated run
// reports its result_state (SUCCESS, FAILED, CANCELED, ...); any other run
// reports its life_cycle_state.
func (p *DatabricksProvider) Status(ctx context.Context, operationID string) (Observation, error) {
	if operationID == "" {
		return Observation{}, fmt.Errorf("databricks status: run id is required")
	}
	target := p.workspaceURL + "/api/2.1/jobs/runs/get?run_id=" + url.QueryEscape(operationID)

	var run databricksRun
	if err := p.rest.getJSON(ctx, target, &run); err != nil {
		return Observation{}, err
	}
	st := run.State
	if st.LifeCycleState == "" {
		return Observation{}, fmt.Errorf("databricks status: response missing state.life_cycle_state")
	}

	status := st.LifeCycleState
	if status == lifeCycleTerminated && st.ResultState != "" {
		status = st.ResultState
	}
	return Observation{Status: types.Status(status), Output: st.StateMessage, OutputLabel: "State Message"}, nil
}

package status

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/emrserverless"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// EMRServerlessAPI is the subset of the EMR Serverless client used by the status package.
type EMRServerlessAPI interface {
	GetJobRun(ctx context.Context, params *emrserverless.GetJobRunInput, optFns ...func(*emrserverless.Options)) (*emrserverless.GetJobRunOutput, error)
}

// EMRServerlessProvider reports the state of an EMR Serverless job run.
type EMRServerlessProvider struct {
	client        EMRServerlessAPI
	applicationID string
}

// NewEMRServerlessProvider creates an EMR Serverless provider.
func NewEMRServerlessProvider(client EMRServerlessAPI, applicationID string) (*EMRServerlessProvider, error) {
	if applicationID == "" {
		return nil, fmt.Errorf("emr-serverless: applicationId is required")
	}
	return &EMRServerlessProvider{client: client, applicationID: applicationID}, nil
}

// Status implements Provider.
func (p *EMRServerlessProvider) Status(ctx context.Context, runID string) (Observation, error) {
	if runID == "" {
		return Observation{}, fmt.Errorf("emr-serverless status: job run id is required")
	}

	out, err := p.client.GetJobRun(ctx, &emrserverless.GetJobRunInput{
		ApplicationId: &p.applicationID,
		JobRunId:      &runID,
	})
	if err != nil {
		return Observation{}, fmt.Errorf("emr-serverless status: GetJobRun failed: %w", err)
	}
	if out.JobRun == nil {
		return Observation{}, fmt.Errorf("emr-serverless status: GetJobRun returned nil JobRun")
	}

	return Observation{
		Status:      types.Status(out.JobRun.State),
		Output:      deref(out.JobRun.StateDetails),
		OutputLabel: "Job Run",
	}, nil
}

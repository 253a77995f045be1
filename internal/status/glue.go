package status

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/glue"
	gluetypes "github.com/aws/aws-sdk-go-v2/service/glue/types"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// GlueAPI is the subset of the AWS Glue client used by the status package.
type GlueAPI interface {
	GetJobRun(ctx context.Context, params *glue.GetJobRunInput, optFns ...func(*glue.Options)) (*glue.GetJobRunOutput, error)
}

// GlueProvider reports the state of a Glue job run. The operation ID is the
// job run ID.
type GlueProvider struct {
	client  GlueAPI
	jobName string
	logs    *LogTailer
}

// NewGlueProvider creates a Glue provider. logs may be nil.
func NewGlueProvider(client GlueAPI, jobName string, logs *LogTailer) (*GlueProvider, error) {
	if jobName == "" {
		return nil, fmt.Errorf("glue: jobName is required")
	}
	return &GlueProvider{client: client, jobName: jobName, logs: logs}, nil
}

// Status implements Provider.
func (p *GlueProvider) Status(ctx context.Context, runID string) (Observation, error) {
	if runID == "" {
		return Observation{}, fmt.Errorf("glue status: job run id is required")
	}

	out, err := p.client.GetJobRun(ctx, &glue.GetJobRunInput{
		JobName: &p.jobName,
		RunId:   &runID,
	})
	if err != nil {
		return Observation{}, fmt.Errorf("glue status: GetJobRun failed: %w", err)
	}
	if out.JobRun == nil {
		return Observation{}, fmt.Errorf("glue status: GetJobRun returned nil JobRun")
	}

	state := out.JobRun.JobRunState
	detail := deref(out.JobRun.ErrorMessage)
	switch state {
	case gluetypes.JobRunStateFailed, gluetypes.JobRunStateError, gluetypes.JobRunStateTimeout:
		detail = p.logs.appendTail(ctx, runID, detail)
	}
	return Observation{
		Status:      types.Status(state),
		Output:      detail,
		OutputLabel: "Job Run",
	}, nil
}

package status

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/emr"
	emrtypes "github.com/aws/aws-sdk-go-v2/service/emr/types"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// EMRAPI is the subset of the AWS EMR client used by the status package.
type EMRAPI interface {
	DescribeStep(ctx context.Context, params *emr.DescribeStepInput, optFns ...func(*emr.Options)) (*emr.DescribeStepOutput, error)
}

// EMRProvider reports the state of a step on an EMR cluster. The operation
// ID is the step ID.
type EMRProvider struct {
	client    EMRAPI
	clusterID string
	logs      *LogTailer
}

// NewEMRProvider creates an EMR step provider. logs may be nil.
func NewEMRProvider(client EMRAPI, clusterID string, logs *LogTailer) (*EMRProvider, error) {
	if clusterID == "" {
		return nil, fmt.Errorf("emr: clusterId is required")
	}
	return &EMRProvider{client: client, clusterID: clusterID, logs: logs}, nil
}

// Status implements Provider.
func (p *EMRProvider) Status(ctx context.Context, stepID string) (Observation, error) {
	if stepID == "" {
		return Observation{}, fmt.Errorf("emr status: step id is required")
	}

	out, err := p.client.DescribeStep(ctx, &emr.DescribeStepInput{
		ClusterId: &p.clusterID,
		StepId:    &stepID,
	})
	if err != nil {
		return Observation{}, fmt.Errorf("emr status: DescribeStep failed: %w", err)
	}
	if out.Step == nil {
		return Observation{}, fmt.Errorf("emr status: DescribeStep returned nil Step")
	}
	if out.Step.Status == nil {
		return Observation{}, fmt.Errorf("emr status: DescribeStep returned nil Step.Status")
	}

	st := out.Step.Status
	var detail string
	if fd := st.FailureDetails; fd != nil {
		detail = joinNonEmpty(": ", deref(fd.Reason), deref(fd.Message))
		if lf := deref(fd.LogFile); lf != "" {
			detail = joinNonEmpty(" ", detail, "(log: "+lf+")")
		}
	}
	if st.State == emrtypes.StepStateFailed {
		detail = p.logs.appendTail(ctx, stepID, detail)
	}
	return Observation{
		Status:      types.Status(st.State),
		Output:      detail,
		OutputLabel: "Step",
	}, nil
}

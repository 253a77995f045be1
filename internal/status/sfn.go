package status

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sfn"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// SFNAPI is the subset of the AWS Step Functions client used by the status package.
type SFNAPI interface {
	DescribeExecution(ctx context.Context, params *sfn.DescribeExecutionInput, optFns ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error)
}

// SFNProvider reports the state of a Step Functions execution. The
// operation ID is the execution ARN.
type SFNProvider struct {
	client SFNAPI
}

// NewSFNProvider creates a Step Functions provider.
func NewSFNProvider(client SFNAPI) *SFNProvider {
	return &SFNProvider{client: client}
}

// Status implements Provider. The state machine output is the diagnostic
// payload; executions that produced none report "error: cause" instead.
func (p *SFNProvider) Status(ctx context.Context, executionARN string) (Observation, error) {
	if executionARN == "" {
		return Observation{}, fmt.Errorf("sfn status: execution arn is required")
	}

	out, err := p.client.DescribeExecution(ctx, &sfn.DescribeExecutionInput{
		ExecutionArn: &executionARN,
	})
	if err != nil {
		return Observation{}, fmt.Errorf("sfn status: DescribeExecution failed: %w", err)
	}

	payload := compactPayload(deref(out.Output))
	if payload == "" {
		payload = joinNonEmpty(": ", deref(out.Error), deref(out.Cause))
	}
	return Observation{
		Status:      types.Status(out.Status),
		Output:      payload,
		OutputLabel: "State Machine",
	}, nil
}

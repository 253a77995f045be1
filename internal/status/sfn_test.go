package status

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	sfntypes "github.com/aws/aws-sdk-go-v2/service/sfn/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

type mockSFNClient struct {
	describeOut *sfn.DescribeExecutionOutput
	describeErr error
	lastARN     string
}

func (m *mockSFNClient) DescribeExecution(ctx context.Context, params *sfn.DescribeExecutionInput, optFns ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error) {
	m.lastARN = aws.ToString(params.ExecutionArn)
	return m.describeOut, m.describeErr
}

const testExecutionARN = "arn:aws:states:us-east-1:123456789012:execution:pseudo-state-machine:020f5b16-b1a1-4149-946f-92dd32d97934"

func TestSFNStatus(t *testing.T) {
	tests := []struct {
		status sfntypes.ExecutionStatus
		want   types.Status
	}{
		{sfntypes.ExecutionStatusRunning, "RUNNING"},
		{sfntypes.ExecutionStatusSucceeded, "SUCCEEDED"},
		{sfntypes.ExecutionStatusFailed, "FAILED"},
		{sfntypes.ExecutionStatusTimedOut, "TIMED_OUT"},
		{sfntypes.ExecutionStatusAborted, "ABORTED"},
		{sfntypes.ExecutionStatusPendingRedrive, "PENDING_REDRIVE"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			client := &mockSFNClient{describeOut: &sfn.DescribeExecutionOutput{Status: tt.status}}
			obs, err := NewSFNProvider(client).Status(context.Background(), testExecutionARN)
			require.NoError(t, err)
			assert.Equal(t, tt.want, obs.Status)
			assert.Equal(t, testExecutionARN, client.lastARN)
		})
	}
}

func TestSFNStatus_OutputIsCompacted(t *testing.T) {
	client := &mockSFNClient{describeOut: &sfn.DescribeExecutionOutput{
		Status: sfntypes.ExecutionStatusFailed,
		Output: aws.String(`{"test": "test"}`),
	}}
	obs, err := NewSFNProvider(client).Status(context.Background(), testExecutionARN)
	require.NoError(t, err)
	assert.Equal(t, `{"test":"test"}`, obs.Output)
	assert.Equal(t, "State Machine", obs.OutputLabel)
}

func TestSFNStatus_ErrorAndCauseWithoutOutput(t *testing.T) {
	client := &mockSFNClient{describeOut: &sfn.DescribeExecutionOutput{
		Status: sfntypes.ExecutionStatusFailed,
		Error:  aws.String("States.TaskFailed"),
		Cause:  aws.String("lambda exploded"),
	}}
	obs, err := NewSFNProvider(client).Status(context.Background(), testExecutionARN)
	require.NoError(t, err)
	assert.Equal(t, "States.TaskFailed: lambda exploded", obs.Output)
}

func TestSFNStatus_Errors(t *testing.T) {
	_, err := NewSFNProvider(&mockSFNClient{describeErr: assert.AnError}).Status(context.Background(), testExecutionARN)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "DescribeExecution failed")

	_, err = NewSFNProvider(&mockSFNClient{}).Status(context.Background(), "")
	assert.Contains(t, err.Error(), "execution arn is required")
}

package status

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// LambdaAPI is the subset of the Lambda client used by the status package.
type LambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// checkerRequest is the payload sent to a status-checker function.
type checkerRequest struct {
	OperationID string `json:"operationId"`
}

// checkerResponse is what a status-checker function must return.
type checkerResponse struct {
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
}

// LambdaProvider delegates the status lookup to a user-supplied function.
type LambdaProvider struct {
	client       LambdaAPI
	functionName string
}

// NewLambdaProvider creates a Lambda checker provider.
func NewLambdaProvider(client LambdaAPI, functionName string) (*LambdaProvider, error) {
	if functionName == "" {
		return nil, fmt.Errorf("lambda: functionName is required")
	}
	return &LambdaProvider{client: client, functionName: functionName}, nil
}

// Status implements Provider.
func (p *LambdaProvider) Status(ctx context.Context, operationID string) (Observation, error) {
	payload, err := json.Marshal(checkerRequest{OperationID: operationID})
	if err != nil {
		return Observation{}, fmt.Errorf("lambda status: marshaling request: %w", err)
	}

	out, err := p.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: &p.functionName,
		Payload:      payload,
	})
	if err != nil {
		return Observation{}, fmt.Errorf("lambda status: Invoke failed: %w", err)
	}
	if fe := deref(out.FunctionError); fe != "" {
		return Observation{}, fmt.Errorf("lambda status: %s returned %s: %s", p.functionName, fe, string(out.Payload))
	}

	var resp checkerResponse
	if err := json.Unmarshal(out.Payload, &resp); err != nil {
		return Observation{}, fmt.Errorf("lambda status: decoding response: %w", err)
	}
	if resp.Status == "" {
		return Observation{}, fmt.Errorf("lambda status: %s returned no status", p.functionName)
	}

	obs := Observation{Status: types.Status(resp.Status), OutputLabel: "Function"}
	if len(resp.Output) > 0 && string(resp.Output) != "null" {
		var s string
		if json.Unmarshal(resp.Output, &s) == nil {
			obs.Output = compactPayload(s)
		} else {
			obs.Output = compactPayload(string(resp.Output))
		}
	}
	return obs, nil
}

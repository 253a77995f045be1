package status

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

const defaultAthenaSleep = 10 * time.Second

// AthenaAPI is the subset of the Athena client used by the status package.
type AthenaAPI interface {
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
}

// AthenaProvider reports the state of an Athena query execution.
//
// With MaxAttempts > 1 a single Status call re-checks a QUEUED or RUNNING
// query up to MaxAttempts times, sleeping Sleep between checks.
type AthenaProvider struct {
	client      AthenaAPI
	MaxAttempts int
	Sleep       time.Duration
}

// NewAthenaProvider creates an Athena provider from the sensor's Athena block.
func NewAthenaProvider(client AthenaAPI, cfg *types.AthenaSensorConfig) (*AthenaProvider, error) {
	p := &AthenaProvider{client: client, MaxAttempts: 1, Sleep: defaultAthenaSleep}
	if cfg == nil {
		return p, nil
	}
	if cfg.MaxPollAttempts > 0 {
		p.MaxAttempts = cfg.MaxPollAttempts
	}
	if cfg.SleepTime != "" {
		d, err := time.ParseDuration(cfg.SleepTime)
		if err != nil {
			return nil, fmt.Errorf("athena: invalid sleepTime %q: %w", cfg.SleepTime, err)
		}
		p.Sleep = d
	}
	return p, nil
}

// Status implements Provider.
func (p *AthenaProvider) Status(ctx context.Context, queryID string) (Observation, error) {
	if queryID == "" {
		return Observation{}, fmt.Errorf("athena status: query execution id is required")
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var obs Observation
	for attempt := 1; ; attempt++ {
		var err error
		obs, err = p.check(ctx, queryID)
		if err != nil {
			return Observation{}, err
		}
		if !athenaIntermediate(obs.Status) || attempt >= attempts {
			return obs, nil
		}

		timer := time.NewTimer(p.Sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return obs, nil
		case <-timer.C:
		}
	}
}

func (p *AthenaProvider) check(ctx context.Context, queryID string) (Observation, error) {
	out, err := p.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: &queryID,
	})
	if err != nil {
		return Observation{}, fmt.Errorf("athena status: GetQueryExecution failed: %w", err)
	}
	if out.QueryExecution == nil || out.QueryExecution.Status == nil {
		return Observation{}, fmt.Errorf("athena status: GetQueryExecution returned no status")
	}

	st := out.QueryExecution.Status
	var detail string
	if st.AthenaError != nil {
		detail = deref(st.AthenaError.ErrorMessage)
	}
	if detail == "" {
		detail = deref(st.StateChangeReason)
	}
	return Observation{
		Status:      types.Status(st.State),
		Output:      compactPayload(detail),
		OutputLabel: "Query",
	}, nil
}

func athenaIntermediate(s types.Status) bool {
	switch athenatypes.QueryExecutionState(s) {
	case athenatypes.QueryExecutionStateQueued, athenatypes.QueryExecutionStateRunning:
		return true
	default:
		return false
	}
}

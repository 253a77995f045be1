package sensor

import (
	"errors"
	"fmt"

	"github.com/dwsmith1983/tripwire/pkg/types"
)

// Sentinel errors matched with errors.Is against the typed errors below.
var (
	ErrSkip                = errors.New("sensor skipped")
	ErrFailed              = errors.New("sensor failed")
	ErrUnknownStatus       = errors.New("unknown status")
	ErrProviderUnavailable = errors.New("status provider unavailable")
)

// FailureError reports that the monitored operation reached a terminal
// failure status and soft fail is off.
type FailureError struct {
	Sensor      string
	OperationID string
	Status      types.Status
	Output      string
	Message     string
}

func (e *FailureError) Error() string { return e.Message }

// Is matches ErrFailed.
func (e *FailureError) Is(target error) bool { return target == ErrFailed }

// SkipError reports a terminal failure downgraded to a skip by soft fail.
type SkipError struct {
	Sensor      string
	OperationID string
	Status      types.Status
	Output      string
	Message     string
}

func (e *SkipError) Error() string { return e.Message }

// Is matches ErrSkip.
func (e *SkipError) Is(target error) bool { return target == ErrSkip }

// UnknownStatusError reports a status missing from the sensor's table.
type UnknownStatusError struct {
	Sensor      string
	Type        types.ProviderType
	OperationID string
	Status      types.Status
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("%s sensor %s: unknown status %q for operation %s", Label(e.Type), e.Sensor, e.Status, e.OperationID)
}

// Is matches ErrUnknownStatus.
func (e *UnknownStatusError) Is(target error) bool { return target == ErrUnknownStatus }

// IsSkip reports whether err asks the caller to mark the task skipped.
func IsSkip(err error) bool {
	return errors.Is(err, ErrSkip)
}

// IsTerminal reports whether err ends polling: a skip, a hard failure or an
// unknown status. Provider errors are not terminal.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrSkip) || errors.Is(err, ErrFailed) || errors.Is(err, ErrUnknownStatus)
}

// OutcomeOf maps a poke's return values to its reported outcome.
func OutcomeOf(done bool, err error) types.PokeOutcome {
	switch {
	case err == nil && done:
		return types.OutcomeSuccess
	case err == nil:
		return types.OutcomePending
	case errors.Is(err, ErrSkip):
		return types.OutcomeSkipped
	case errors.Is(err, ErrFailed), errors.Is(err, ErrUnknownStatus):
		return types.OutcomeFailed
	default:
		return types.OutcomeError
	}
}

// failureMessage renders "<Label> sensor failed", followed by the diagnostic
// payload when one exists.
func failureMessage(t types.ProviderType, outputLabel, output string) string {
	msg := Label(t) + " sensor failed"
	if output == "" {
		return msg
	}
	if outputLabel == "" {
		outputLabel = "Diagnostic"
	}
	return fmt.Sprintf("%s. %s Output: %s", msg, outputLabel, output)
}

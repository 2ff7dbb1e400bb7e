package battboot

import (
	"testing"

	"github.com/pkg/errors"
)

func TestOutcomeExitCodes(t *testing.T) {
	tests := []struct {
		outcome Outcome
		code    int
	}{
		{OutcomeNothingToDo, 255},
		{OutcomeSuccess, 1},
		{OutcomeHardwareNotFound, 2},
		{OutcomeHardwareBusy, 3},
		{OutcomeHardwareWrongMode, 4},
		{OutcomeFirmwareUpToDate, 5},
		{OutcomeFirmwareNeedsUpdate, 6},
		{OutcomeGenericError, 9},
	}
	for _, tt := range tests {
		if got := tt.outcome.ExitCode(); got != tt.code {
			t.Errorf("%v exit code = %d, want %d", tt.outcome, got, tt.code)
		}
	}
}

func TestOutcomeOf(t *testing.T) {
	if got := OutcomeOf(nil); got != OutcomeSuccess {
		t.Errorf("OutcomeOf(nil) = %v, want %v", got, OutcomeSuccess)
	}

	err := failf(OutcomeHardwareBusy, "port in use")
	if got := OutcomeOf(err); got != OutcomeHardwareBusy {
		t.Errorf("OutcomeOf = %v, want %v", got, OutcomeHardwareBusy)
	}

	// A Failure stays classifiable through wrapping.
	wrapped := errors.Wrap(err, "while probing")
	if got := OutcomeOf(wrapped); got != OutcomeHardwareBusy {
		t.Errorf("OutcomeOf(wrapped) = %v, want %v", got, OutcomeHardwareBusy)
	}

	if got := OutcomeOf(errors.New("anything else")); got != OutcomeGenericError {
		t.Errorf("OutcomeOf(plain) = %v, want %v", got, OutcomeGenericError)
	}
}

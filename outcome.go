package battboot

import (
	"errors"
	"fmt"
)

// Outcome is the closed set of terminal results a run can produce. Its
// integer value doubles as the process exit status, which is a stable
// contract with callers.
type Outcome int

const (
	OutcomeNothingToDo         Outcome = 255
	OutcomeSuccess             Outcome = 1
	OutcomeHardwareNotFound    Outcome = 2
	OutcomeHardwareBusy        Outcome = 3
	OutcomeHardwareWrongMode   Outcome = 4
	OutcomeFirmwareUpToDate    Outcome = 5
	OutcomeFirmwareNeedsUpdate Outcome = 6
	OutcomeGenericError        Outcome = 9
)

// ExitCode returns the process exit status for the outcome.
func (o Outcome) ExitCode() int {
	return int(o)
}

func (o Outcome) String() string {
	switch o {
	case OutcomeNothingToDo:
		return "nothing to do"
	case OutcomeSuccess:
		return "success"
	case OutcomeHardwareNotFound:
		return "hardware not found"
	case OutcomeHardwareBusy:
		return "hardware busy"
	case OutcomeHardwareWrongMode:
		return "hardware in wrong mode"
	case OutcomeFirmwareUpToDate:
		return "firmware up to date"
	case OutcomeFirmwareNeedsUpdate:
		return "firmware needs update"
	case OutcomeGenericError:
		return "generic error"
	}
	return fmt.Sprintf("unknown outcome %d", int(o))
}

// Failure is an error carrying the Outcome a failed step maps to. Every
// component-level failure is mapped to exactly one Failure and propagated
// unchanged to the top; no step retries.
type Failure struct {
	Outcome Outcome
	Reason  string
}

func (f *Failure) Error() string {
	return f.Reason
}

// failf logs the remediation text for a failure and returns it as an
// error.
func failf(o Outcome, format string, args ...interface{}) *Failure {
	reason := fmt.Sprintf(format, args...)
	pkgLog.Errorf("%s", reason)
	return &Failure{Outcome: o, Reason: reason}
}

// OutcomeOf maps an error to its terminal Outcome. A nil error is
// success; errors that carry no Outcome are unclassified.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Outcome
	}
	return OutcomeGenericError
}

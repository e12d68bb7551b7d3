// Package run drives a single analysis run from input validation through
// job submission to the job's terminal status.
package run

// State is the run controller's state.
type State int

const (
	Idle State = iota
	Validating
	Submitting
	Streaming
	DoneOK
	DoneError
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Validating:
		return "VALIDATING"
	case Submitting:
		return "SUBMITTING"
	case Streaming:
		return "STREAMING"
	case DoneOK:
		return "DONE_OK"
	case DoneError:
		return "DONE_ERROR"
	default:
		return "UNKNOWN"
	}
}

// Active reports whether a run is in progress in state s.
func (s State) Active() bool {
	return s == Validating || s == Submitting || s == Streaming
}

// Indicator is the single user-visible status of the last run attempt.
type Indicator string

const (
	IndicatorNone            Indicator = ""
	IndicatorRunning         Indicator = "running"
	IndicatorInputError      Indicator = "input_error"
	IndicatorCompleted       Indicator = "completed"
	IndicatorJobFailed       Indicator = "job_failed"
	IndicatorConnectionError Indicator = "connection_error"
	IndicatorSubmissionError Indicator = "submission_error"
)

// Failed reports whether the indicator shows an error.
func (i Indicator) Failed() bool {
	switch i {
	case IndicatorInputError, IndicatorJobFailed, IndicatorConnectionError, IndicatorSubmissionError:
		return true
	}
	return false
}

// Package api provides error types for job runner responses.
package api

import (
	"errors"
	"fmt"
)

// ErrMissingJobID indicates a 2xx response without a usable job_id.
var ErrMissingJobID = errors.New("response did not include a job_id")

// FallbackMessage is shown when a rejected submission carries no detail.
const FallbackMessage = "API validation error"

// SubmissionError is a rejected or unreachable job submission.
//
// StatusCode is zero when no response was received. Detail is the server's
// message, set only when it sent one as a string.
type SubmissionError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("submission failed: %v", e.Err)
	}
	return fmt.Sprintf("submission failed (HTTP %d): %s", e.StatusCode, e.Message())
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Message returns the text shown to the user: the server detail if present,
// then the underlying cause, then FallbackMessage.
func (e *SubmissionError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return FallbackMessage
}

// IsSubmissionError reports whether err is or wraps a SubmissionError.
func IsSubmissionError(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se)
}

package models

import "encoding/json"

// JobStatus is the client's view of a job's lifecycle.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
)

// Terminal reports whether no further events are expected for the job.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is a server-side unit of work tracked until one terminal status.
// It exists between a successful submission and the controller's return to idle.
type Job struct {
	ID     string
	Status JobStatus
}

// RunResponse is the success body of POST /api/run.
type RunResponse struct {
	JobID string `json:"job_id"`
}

// ErrorResponse is the failure body of POST /api/run.
// Detail is kept raw: the runner sends a string for rule violations but a
// list of objects for schema errors.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail,omitempty"`
}

// DetailString returns the detail when it is a non-empty JSON string.
func (r ErrorResponse) DetailString() (string, bool) {
	if len(r.Detail) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.Detail, &s); err != nil || s == "" {
		return "", false
	}
	return s, true
}

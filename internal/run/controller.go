package run

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/msccatools/msccat-client/internal/api"
	"github.com/msccatools/msccat-client/internal/events"
	"github.com/msccatools/msccat-client/internal/logging"
	"github.com/msccatools/msccat-client/internal/models"
	"github.com/msccatools/msccat-client/internal/params"
	"github.com/msccatools/msccat-client/internal/validation"
)

// ErrRunInProgress is returned by Start while another run is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// ConnectionFailedLine is appended to the log when the event channel fails.
const ConnectionFailedLine = "[error] WebSocket connection failed."

// Validator checks parameters before submission.
type Validator interface {
	Validate(p models.AnalysisParameters) validation.Errors
}

// Submitter creates a job and returns its id.
type Submitter interface {
	SubmitRun(ctx context.Context, p models.AnalysisParameters) (string, error)
}

// EventStream is an open job event sequence.
type EventStream interface {
	Events() <-chan models.LogEvent
	Close() error
}

// OpenFunc opens the event stream of a job.
type OpenFunc func(ctx context.Context, jobID string) (EventStream, error)

// Outcome summarizes one run attempt.
type Outcome struct {
	Final      State
	Indicator  Indicator
	JobID      string
	Message    string
	Errors     validation.Errors
	Lines      []models.LogLine
	Params     models.AnalysisParameters
	StartedAt  time.Time
	FinishedAt time.Time
}

// OK reports whether the job completed.
func (o *Outcome) OK() bool {
	return o.Final == DoneOK
}

// Duration returns how long the attempt took.
func (o *Outcome) Duration() time.Duration {
	return o.FinishedAt.Sub(o.StartedAt)
}

// Options configures a Controller. Submitter and Open are required.
type Options struct {
	Validator Validator
	Submitter Submitter
	Open      OpenFunc
	View      View
	Bus       *events.EventBus
	Logger    *logging.Logger
}

// Controller owns the run state machine. At most one run is active at a time;
// the state returns to Idle at the end of every attempt.
type Controller struct {
	validator Validator
	submitter Submitter
	open      OpenFunc
	view      View
	bus       *events.EventBus
	logger    *logging.Logger

	mu    sync.Mutex
	state State
	job   *models.Job
}

// NewController creates a controller in the Idle state.
func NewController(opts Options) *Controller {
	c := &Controller{
		validator: opts.Validator,
		submitter: opts.Submitter,
		open:      opts.Open,
		view:      opts.View,
		bus:       opts.Bus,
		logger:    opts.Logger,
	}
	if c.validator == nil {
		c.validator = validation.New(nil)
	}
	if c.view == nil {
		c.view = NopView{}
	}
	if c.logger == nil {
		c.logger = logging.Nop()
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// JobID returns the id of the job being streamed, if any.
func (c *Controller) JobID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job == nil {
		return ""
	}
	return c.job.ID
}

// Job returns a copy of the current job. It reports false between runs and
// before a submission succeeds.
func (c *Controller) Job() (models.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job == nil {
		return models.Job{}, false
	}
	return *c.job, true
}

func (c *Controller) setJobStatus(status models.JobStatus) {
	c.mu.Lock()
	if c.job != nil {
		c.job.Status = status
	}
	c.mu.Unlock()
}

// Start runs one attempt with the current form values and blocks until it
// ends. It returns ErrRunInProgress without side effects when a run is
// already active. Every other failure is reported through the returned
// Outcome and the view, never as an error.
func (c *Controller) Start(ctx context.Context, form params.Form) (*Outcome, error) {
	c.mu.Lock()
	if c.state != Idle {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug().Str("state", state.String()).Msg("Start ignored, run in progress")
		return nil, ErrRunInProgress
	}
	c.state = Validating
	c.mu.Unlock()

	out := &Outcome{StartedAt: time.Now()}

	c.view.SetStartEnabled(false)
	c.view.SetIndicator(IndicatorRunning)
	c.publishState(Idle, Validating, "", IndicatorRunning)

	out.Params = form.Snapshot()
	if errs := c.validator.Validate(out.Params); len(errs) > 0 {
		out.Errors = errs
		c.view.ShowValidationErrors(errs)
		c.publishError(events.ErrorValidation, "", errs.Error(), errs)
		c.logger.Warn().Int("errors", len(errs)).Msg("Parameters rejected")
		return c.finish(out, DoneError, IndicatorInputError, errs.Error()), nil
	}

	c.transition(Validating, Submitting, "")
	c.logger.Info().Str("url", out.Params.URL).Msg("Submitting analysis")

	jobID, err := c.submitter.SubmitRun(ctx, out.Params)
	if err != nil {
		msg := submissionMessage(err)
		c.appendLine(out, models.NewLogLine("[error] "+msg))
		c.publishError(events.ErrorSubmission, "", msg, nil)
		c.logger.Error().Err(err).Msg("Submission failed")
		return c.finish(out, DoneError, IndicatorSubmissionError, msg), nil
	}

	out.JobID = jobID
	c.mu.Lock()
	c.job = &models.Job{ID: jobID, Status: models.JobPending}
	c.mu.Unlock()

	c.transition(Submitting, Streaming, jobID)
	c.view.ClearLog()

	s, err := c.open(ctx, jobID)
	if err != nil {
		return c.connectionFailed(out, err), nil
	}
	defer s.Close()
	c.setJobStatus(models.JobRunning)

	for ev := range s.Events() {
		switch ev.Kind {
		case models.EventLog:
			c.appendLine(out, ev.Line)

		case models.EventStatus:
			_ = s.Close()
			c.setJobStatus(ev.Status)
			if ev.Status == models.JobCompleted {
				c.logger.Info().Str("job_id", jobID).Msg("Job completed")
				return c.finish(out, DoneOK, IndicatorCompleted, ""), nil
			}
			c.logger.Warn().Str("job_id", jobID).Str("status", string(ev.Status)).Msg("Job failed")
			c.publishError(events.ErrorJobFailed, jobID, "job failed", nil)
			return c.finish(out, DoneError, IndicatorJobFailed, "job failed"), nil

		case models.EventConnectionError:
			return c.connectionFailed(out, ev.Err), nil
		}
	}

	// The stream ended without a terminal event.
	return c.connectionFailed(out, errors.New("event stream closed")), nil
}

func (c *Controller) connectionFailed(out *Outcome, err error) *Outcome {
	c.appendLine(out, models.NewLogLine(ConnectionFailedLine))
	msg := "connection failed"
	if err != nil {
		msg = err.Error()
	}
	c.publishError(events.ErrorConnection, out.JobID, msg, nil)
	c.logger.Error().Err(err).Str("job_id", out.JobID).Msg("Log stream failed, job outcome unknown")
	return c.finish(out, DoneError, IndicatorConnectionError, msg)
}

// finish enters the terminal state, updates the indicator, then folds back
// to Idle and re-enables the start trigger.
func (c *Controller) finish(out *Outcome, final State, ind Indicator, msg string) *Outcome {
	c.mu.Lock()
	from := c.state
	c.state = final
	c.mu.Unlock()

	out.Final = final
	out.Indicator = ind
	out.Message = msg
	out.FinishedAt = time.Now()

	c.view.SetIndicator(ind)
	c.publishState(from, final, out.JobID, ind)

	c.mu.Lock()
	c.state = Idle
	c.job = nil
	c.mu.Unlock()

	c.publishState(final, Idle, out.JobID, ind)
	c.publishComplete(out)
	c.view.SetStartEnabled(true)

	return out
}

func (c *Controller) transition(from, to State, jobID string) {
	c.mu.Lock()
	c.state = to
	c.mu.Unlock()
	c.publishState(from, to, jobID, IndicatorRunning)
}

func (c *Controller) appendLine(out *Outcome, line models.LogLine) {
	out.Lines = append(out.Lines, line)
	c.view.AppendLog(line)
	if c.bus != nil {
		c.bus.PublishLogLine(out.JobID, line.Text, string(line.Class))
	}
}

func (c *Controller) publishState(from, to State, jobID string, ind Indicator) {
	if c.bus != nil {
		c.bus.PublishStateChange(from.String(), to.String(), jobID, string(ind))
	}
}

func (c *Controller) publishError(kind events.ErrorKind, jobID, msg string, errs validation.Errors) {
	if c.bus == nil {
		return
	}
	var messages []string
	for _, e := range errs {
		messages = append(messages, e.Message)
	}
	c.bus.PublishError(kind, jobID, msg, messages)
}

func (c *Controller) publishComplete(out *Outcome) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(&events.CompleteEvent{
		BaseEvent: events.BaseEvent{
			EventType: events.EventComplete,
			Time:      out.FinishedAt,
		},
		JobID:     out.JobID,
		Final:     out.Final.String(),
		Indicator: string(out.Indicator),
		Message:   out.Message,
		Lines:     len(out.Lines),
		Duration:  out.Duration(),
	})
}

// submissionMessage is the text shown for a failed submission.
func submissionMessage(err error) string {
	var se *api.SubmissionError
	if errors.As(err, &se) {
		return se.Message()
	}
	return err.Error()
}

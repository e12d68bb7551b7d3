package models

import (
	"encoding/json"
	"errors"
	"strings"
)

// EventKind discriminates LogEvent.
type EventKind int

const (
	// EventLog carries one log line.
	EventLog EventKind = iota
	// EventStatus carries the terminal job status; the stream closes after it.
	EventStatus
	// EventConnectionError means the channel broke before a terminal status.
	// The job outcome is unknown.
	EventConnectionError
)

func (k EventKind) String() string {
	switch k {
	case EventLog:
		return "log"
	case EventStatus:
		return "status"
	case EventConnectionError:
		return "connection_error"
	default:
		return "unknown"
	}
}

// LineClass is the presentation category of a log line.
type LineClass string

const (
	LineStep   LineClass = "step"
	LineError  LineClass = "error"
	LineJob    LineClass = "job"
	LineNormal LineClass = "normal"
)

// ClassifyLine inspects the prefix of a line. First match wins.
func ClassifyLine(line string) LineClass {
	switch {
	case strings.HasPrefix(line, "[step"):
		return LineStep
	case strings.HasPrefix(line, "[error"):
		return LineError
	case strings.HasPrefix(line, "[job"):
		return LineJob
	default:
		return LineNormal
	}
}

// LogLine is a classified line as rendered in the log view.
type LogLine struct {
	Text  string
	Class LineClass
}

// NewLogLine classifies text.
func NewLogLine(text string) LogLine {
	return LogLine{Text: text, Class: ClassifyLine(text)}
}

// LogEvent is one element of a job's event stream.
type LogEvent struct {
	Kind   EventKind
	Line   LogLine   // EventLog
	Status JobStatus // EventStatus: JobCompleted or JobFailed
	Err    error     // EventConnectionError
}

// Terminal reports whether the event ends the stream.
func (e LogEvent) Terminal() bool {
	return e.Kind == EventStatus || e.Kind == EventConnectionError
}

// Wire discriminators of inbound stream messages.
const (
	MessageTypeLog    = "log"
	MessageTypeStatus = "status"

	// WireStatusCompleted is the only status value that means success.
	WireStatusCompleted = "completed"
)

// ErrUnknownMessageType is returned by DecodeStreamMessage for a well-formed
// message whose type the client does not handle.
var ErrUnknownMessageType = errors.New("unknown message type")

// streamMessage is the JSON shape sent by the runner. Line and Status stay
// raw so that a value of an unexpected JSON type does not fail the frame.
type streamMessage struct {
	Type   string          `json:"type"`
	Line   json.RawMessage `json:"line,omitempty"`
	Status json.RawMessage `json:"status,omitempty"`
}

// DecodeStreamMessage turns one inbound frame into a LogEvent.
// Only the JSON string "completed" is success; any other status value,
// including a missing or null one, is a failure.
func DecodeStreamMessage(data []byte) (LogEvent, error) {
	var msg streamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return LogEvent{}, err
	}

	switch msg.Type {
	case MessageTypeLog:
		return LogEvent{Kind: EventLog, Line: NewLogLine(rawText(msg.Line))}, nil
	case MessageTypeStatus:
		status := JobFailed
		var s string
		if json.Unmarshal(msg.Status, &s) == nil && s == WireStatusCompleted {
			status = JobCompleted
		}
		return LogEvent{Kind: EventStatus, Status: status}, nil
	default:
		return LogEvent{}, ErrUnknownMessageType
	}
}

// rawText returns a JSON string's value, or the JSON text of any other value.
// A missing or null line is empty.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/msccatools/msccat-client/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventLogLine     EventType = "log_line"
	EventError       EventType = "error"
	EventComplete    EventType = "complete"
)

// ErrorKind classifies an ErrorEvent.
type ErrorKind string

const (
	ErrorValidation ErrorKind = "validation"
	ErrorSubmission ErrorKind = "submission"
	ErrorJobFailed  ErrorKind = "job_failed"
	ErrorConnection ErrorKind = "connection"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"time"`
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// StateChangeEvent represents a run state transition
type StateChangeEvent struct {
	BaseEvent
	OldState  string `json:"old_state"`
	NewState  string `json:"new_state"`
	JobID     string `json:"job_id,omitempty"`
	Indicator string `json:"indicator,omitempty"`
}

// LogLineEvent represents one line appended to the log view
type LogLineEvent struct {
	BaseEvent
	JobID string `json:"job_id,omitempty"`
	Line  string `json:"line"`
	Class string `json:"class"`
}

// ErrorEvent represents a run attempt ending in error
type ErrorEvent struct {
	BaseEvent
	Kind     ErrorKind `json:"kind"`
	JobID    string    `json:"job_id,omitempty"`
	Message  string    `json:"message"`
	Messages []string  `json:"messages,omitempty"` // every violation, for validation errors
}

// CompleteEvent represents the end of a run attempt
type CompleteEvent struct {
	BaseEvent
	JobID     string        `json:"job_id,omitempty"`
	Final     string        `json:"final"`
	Indicator string        `json:"indicator"`
	Message   string        `json:"message,omitempty"`
	Lines     int           `json:"lines"`
	Duration  time.Duration `json:"duration_ns"`
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	lossless      []chan Event // Subscribers to all events that Publish waits for
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// SubscribeAllBlocking creates a subscription to all events that never drops.
// Publish waits while the channel's buffer is full, so the subscriber must keep
// reading until the bus is closed.
func (eb *EventBus) SubscribeAllBlocking() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.lossless = append(eb.lossless, ch)
	return ch
}

// Publish sends an event to all subscribers. Subscribers from Subscribe and
// SubscribeAll miss the event when their buffer is full; blocking subscribers
// are waited for.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.lossless {
		ch <- event
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}

	for _, ch := range eb.lossless {
		close(ch)
	}
}

// PublishStateChange is a convenience method for publishing state change events
func (eb *EventBus) PublishStateChange(oldState, newState, jobID, indicator string) {
	eb.Publish(&StateChangeEvent{
		BaseEvent: BaseEvent{
			EventType: EventStateChange,
			Time:      time.Now(),
		},
		OldState:  oldState,
		NewState:  newState,
		JobID:     jobID,
		Indicator: indicator,
	})
}

// PublishLogLine is a convenience method for publishing log line events
func (eb *EventBus) PublishLogLine(jobID, line, class string) {
	eb.Publish(&LogLineEvent{
		BaseEvent: BaseEvent{
			EventType: EventLogLine,
			Time:      time.Now(),
		},
		JobID: jobID,
		Line:  line,
		Class: class,
	})
}

// PublishError is a convenience method for publishing error events
func (eb *EventBus) PublishError(kind ErrorKind, jobID, message string, messages []string) {
	eb.Publish(&ErrorEvent{
		BaseEvent: BaseEvent{
			EventType: EventError,
			Time:      time.Now(),
		},
		Kind:     kind,
		JobID:    jobID,
		Message:  message,
		Messages: messages,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from all event types
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}

	for i, subCh := range eb.lossless {
		if subCh == ch {
			eb.lossless[i] = eb.lossless[len(eb.lossless)-1]
			eb.lossless = eb.lossless[:len(eb.lossless)-1]
			break
		}
	}
}

// GetDroppedEventCount returns the total number of events dropped due to full
// buffers. Blocking subscribers never count.
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}

package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/net/websocket"

	"github.com/msccatools/msccat-client/internal/logging"
	"github.com/msccatools/msccat-client/internal/models"
)

// Stream is the event sequence of one job. It is not restartable.
//
// Events are delivered on an unbuffered channel in arrival order. The
// sequence ends with exactly one terminal event (a status or a connection
// error) unless the consumer calls Close first; the channel is closed after it.
type Stream struct {
	conn   *websocket.Conn
	jobID  string
	logger *logging.Logger

	events   chan models.LogEvent
	done     chan struct{} // closed by Close
	finished chan struct{} // closed when the read loop exits

	closing   atomic.Bool
	closeOnce sync.Once
}

func newStream(ctx context.Context, conn *websocket.Conn, jobID string, logger *logging.Logger) *Stream {
	s := &Stream{
		conn:     conn,
		jobID:    jobID,
		logger:   logger,
		events:   make(chan models.LogEvent),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	go s.readLoop(ctx)
	go s.watch(ctx)

	return s
}

// JobID returns the job this stream follows.
func (s *Stream) JobID() string {
	return s.jobID
}

// Events returns the event channel.
func (s *Stream) Events() <-chan models.LogEvent {
	return s.events
}

// Close stops the stream. No further events are delivered after Close
// returns, and no connection error is reported for it. Safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// watch closes the socket when ctx ends so the blocked read returns.
func (s *Stream) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		_ = s.conn.Close()
	case <-s.finished:
	}
}

func (s *Stream) readLoop(ctx context.Context) {
	defer close(s.finished)
	defer close(s.events)
	defer s.conn.Close()

	for {
		var data []byte
		if err := websocket.Message.Receive(s.conn, &data); err != nil {
			if s.closing.Load() {
				return
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			s.logger.Warn().Err(err).Str("job_id", s.jobID).Msg("Log stream closed before terminal status")
			s.emit(models.LogEvent{Kind: models.EventConnectionError, Err: &ConnectionError{Err: err}})
			return
		}

		ev, err := models.DecodeStreamMessage(data)
		if err != nil {
			if errors.Is(err, models.ErrUnknownMessageType) {
				s.logger.Warn().Str("job_id", s.jobID).Str("frame", truncate(data)).Msg("Ignoring stream message with unknown type")
			} else {
				s.logger.Warn().Err(err).Str("job_id", s.jobID).Str("frame", truncate(data)).Msg("Ignoring malformed stream message")
			}
			continue
		}

		if !s.emit(ev) {
			return
		}

		if ev.Kind == models.EventStatus {
			s.closing.Store(true)
			s.logger.Debug().Str("job_id", s.jobID).Str("status", string(ev.Status)).Msg("Terminal status received, closing stream")
			return
		}
	}
}

// emit blocks until the consumer takes ev or the stream is closed.
func (s *Stream) emit(ev models.LogEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func truncate(data []byte) string {
	const limit = 200
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}

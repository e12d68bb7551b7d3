// Package logging provides structured logging for the msccat CLI.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with console formatting.
type Logger struct {
	zlog   zerolog.Logger
	output io.Writer // current output writer
}

// NewLogger creates a logger writing human-readable lines to w.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{}
	l.SetOutput(w)
	return l
}

// NewDefaultCLILogger creates a logger on stderr. Stdout is reserved for the
// job's log view.
func NewDefaultCLILogger() *Logger {
	return NewLogger(os.Stderr)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop(), output: io.Discard}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger context.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// Child returns a logger carrying the given string field on every event.
func (l *Logger) Child(key, value string) *Logger {
	return &Logger{
		zlog:   l.zlog.With().Str(key, value).Logger(),
		output: l.output,
	}
}

// SetOutput changes the output writer for the logger.
// Used to route log lines around the spinner.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.zlog = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}).With().Timestamp().Logger()
}

// Output returns the current output writer.
func (l *Logger) Output() io.Writer {
	return l.output
}

// Leveled adapts the logger to retryablehttp's LeveledLogger.
func (l *Logger) Leveled() retryablehttp.LeveledLogger {
	return &leveledLogger{l: l}
}

// leveledLogger implements the retryablehttp.LeveledLogger interface.
// Request chatter is demoted one level: retry decisions are warnings, each
// attempt is debug.
type leveledLogger struct {
	l *Logger
}

func (r *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	fields(r.l.zlog.Warn(), keysAndValues).Msg(msg)
}

func (r *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	fields(r.l.zlog.Debug(), keysAndValues).Msg(msg)
}

func (r *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	fields(r.l.zlog.Debug(), keysAndValues).Msg(msg)
}

func (r *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	fields(r.l.zlog.Warn(), keysAndValues).Msg(msg)
}

func fields(ev *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		ev = ev.Interface(fmt.Sprint(kv[i]), kv[i+1])
	}
	return ev
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}

// Package progress reports activity while a run is in flight.
package progress

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Reporter shows that work is ongoing without a known total.
type Reporter interface {
	Start(description string)
	SetDescription(desc string)
	// Tick advances the activity by one unit, for example one log line.
	Tick()
	// Clear erases the indicator so a line can be printed in its place.
	Clear()
	Finish()
}

// CLISpinner implements Reporter with a progressbar spinner.
type CLISpinner struct {
	w io.Writer

	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewCLISpinner creates a spinner that renders to w.
func NewCLISpinner(w io.Writer) *CLISpinner {
	return &CLISpinner{w: w}
}

// Start shows the spinner with a description. A running spinner is replaced.
func (p *CLISpinner) Start(description string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar != nil {
		_ = p.bar.Exit()
	}
	p.bar = progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetItsString("lines"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// SetDescription updates the spinner description.
func (p *CLISpinner) SetDescription(desc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Describe(desc)
	}
}

// Tick advances the spinner.
func (p *CLISpinner) Tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

// Clear erases the spinner line.
func (p *CLISpinner) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Clear()
	}
}

// Finish removes the spinner. It can be started again afterwards.
func (p *CLISpinner) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// Active reports whether the spinner is shown.
func (p *CLISpinner) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bar != nil
}

// NoOpProgress is a reporter that does nothing (for quiet or non-terminal output).
type NoOpProgress struct{}

// NewNoOpProgress creates a new no-op progress reporter.
func NewNoOpProgress() *NoOpProgress {
	return &NoOpProgress{}
}

func (p *NoOpProgress) Start(description string)   {}
func (p *NoOpProgress) SetDescription(desc string) {}
func (p *NoOpProgress) Tick()                      {}
func (p *NoOpProgress) Clear()                     {}
func (p *NoOpProgress) Finish()                    {}

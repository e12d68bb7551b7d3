package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/msccatools/msccat-client/internal/models"
	"github.com/msccatools/msccat-client/internal/progress"
	"github.com/msccatools/msccat-client/internal/run"
	"github.com/msccatools/msccat-client/internal/validation"
)

// Options configures a View.
type Options struct {
	// Out receives log lines.
	Out io.Writer
	// Status receives the indicator, validation errors and the spinner.
	Status io.Writer
	Color  bool
	// Spinner is shown while the start trigger is disabled. Nil disables it.
	Spinner progress.Reporter
}

// View implements run.View on a pair of text streams.
type View struct {
	out     io.Writer
	status  io.Writer
	spinner progress.Reporter
	outPal  *palette
	statPal *palette

	mu           sync.Mutex
	lines        []models.LogLine
	indicator    run.Indicator
	startEnabled bool
}

var _ run.View = (*View)(nil)

// New creates a View. The start trigger begins enabled.
func New(opts Options) *View {
	if opts.Status == nil {
		opts.Status = opts.Out
	}
	if opts.Spinner == nil {
		opts.Spinner = progress.NewNoOpProgress()
	}
	return &View{
		out:          opts.Out,
		status:       opts.Status,
		spinner:      opts.Spinner,
		outPal:       newPalette(opts.Out, opts.Color),
		statPal:      newPalette(opts.Status, opts.Color),
		startEnabled: true,
	}
}

func (v *View) SetStartEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.startEnabled = enabled
	if enabled {
		v.spinner.Finish()
	} else {
		v.spinner.Start(Label(run.IndicatorRunning))
	}
}

func (v *View) SetIndicator(ind run.Indicator) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.indicator = ind
	if ind == run.IndicatorRunning || ind == run.IndicatorNone {
		v.spinner.SetDescription(Label(ind))
		return
	}
	v.spinner.Clear()
	fmt.Fprintf(v.status, "Status: %s\n", v.statPal.indicator(ind))
}

func (v *View) ClearLog() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lines = nil
}

func (v *View) AppendLog(line models.LogLine) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lines = append(v.lines, line)
	v.spinner.Clear()
	fmt.Fprintln(v.out, v.outPal.line(line))
	v.spinner.Tick()
}

func (v *View) ShowValidationErrors(errs validation.Errors) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.spinner.Clear()
	fmt.Fprintln(v.status, v.statPal.err.Sprint("Please fix the following errors:"))
	for _, e := range errs {
		fmt.Fprintf(v.status, "  - %s\n", e.Message)
	}
}

// Lines returns the log lines shown since the last clear.
func (v *View) Lines() []models.LogLine {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.LogLine, len(v.lines))
	copy(out, v.lines)
	return out
}

// Indicator returns the current indicator.
func (v *View) Indicator() run.Indicator {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.indicator
}

// StartEnabled reports whether a run may be started.
func (v *View) StartEnabled() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.startEnabled
}

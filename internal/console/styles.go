package console

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/muesli/termenv"

	"github.com/msccatools/msccat-client/internal/models"
	"github.com/msccatools/msccat-client/internal/run"
)

var indicatorLabels = map[run.Indicator]string{
	run.IndicatorRunning:         "Running...",
	run.IndicatorInputError:      "Input Error",
	run.IndicatorCompleted:       "Completed",
	run.IndicatorJobFailed:       "Error occurred",
	run.IndicatorConnectionError: "Connection Error",
	run.IndicatorSubmissionError: "Error",
}

// Label returns the user-facing text of an indicator.
func Label(ind run.Indicator) string {
	return indicatorLabels[ind]
}

var (
	success = lipgloss.Color("#22C55E")
	danger  = lipgloss.Color("#EF4444")
	accent  = lipgloss.Color("#3B82F6")
)

// palette holds the styles of one output stream.
type palette struct {
	step *color.Color
	err  *color.Color
	job  *color.Color

	badge    lipgloss.Style
	colorful bool
}

func newPalette(w io.Writer, enabled bool) *palette {
	p := &palette{
		step:     color.New(color.FgCyan, color.Bold),
		err:      color.New(color.FgRed),
		job:      color.New(color.FgMagenta),
		colorful: enabled,
	}
	for _, c := range []*color.Color{p.step, p.err, p.job} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	r := lipgloss.NewRenderer(w)
	if enabled {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	p.badge = r.NewStyle().Bold(true).Padding(0, 1)
	return p
}

func (p *palette) line(l models.LogLine) string {
	switch l.Class {
	case models.LineStep:
		return p.step.Sprint(l.Text)
	case models.LineError:
		return p.err.Sprint(l.Text)
	case models.LineJob:
		return p.job.Sprint(l.Text)
	default:
		return l.Text
	}
}

func (p *palette) indicator(ind run.Indicator) string {
	label := Label(ind)
	if !p.colorful {
		return "[" + label + "]"
	}
	bg := accent
	switch {
	case ind == run.IndicatorCompleted:
		bg = success
	case ind.Failed():
		bg = danger
	}
	return p.badge.Foreground(lipgloss.Color("#FFFFFF")).Background(bg).Render(label)
}

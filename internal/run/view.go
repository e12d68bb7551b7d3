package run

import (
	"github.com/msccatools/msccat-client/internal/models"
	"github.com/msccatools/msccat-client/internal/validation"
)

// View is the presentation surface the controller drives. Calls are made
// synchronously from the goroutine running Start, in transition order.
type View interface {
	// SetStartEnabled enables or disables the start trigger.
	SetStartEnabled(enabled bool)
	// SetIndicator replaces the status indicator.
	SetIndicator(ind Indicator)
	// ClearLog empties the log display.
	ClearLog()
	// AppendLog adds a line at the bottom of the log display and scrolls to it.
	AppendLog(line models.LogLine)
	// ShowValidationErrors presents every violation at once.
	ShowValidationErrors(errs validation.Errors)
}

// NopView discards all presentation calls.
type NopView struct{}

func (NopView) SetStartEnabled(bool)                   {}
func (NopView) SetIndicator(Indicator)                 {}
func (NopView) ClearLog()                              {}
func (NopView) AppendLog(models.LogLine)               {}
func (NopView) ShowValidationErrors(validation.Errors) {}

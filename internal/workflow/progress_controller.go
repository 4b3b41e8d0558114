// Package workflow provides the progress controller for step display.
// Related: internal/progress/display.go
// Tags: workflow, progress, display
package workflow

import (
	"github.com/ariel-frischer/gitchangelog/internal/progress"
)

// ProgressController wraps a progress.Display and provides nil-safe
// methods that become no-ops when the display is nil.
type ProgressController struct {
	display *progress.Display
}

// NewProgressController creates a new ProgressController with the given display.
// The display may be nil, in which case all methods become no-ops.
func NewProgressController(display *progress.Display) *ProgressController {
	return &ProgressController{
		display: display,
	}
}

// StartStep begins displaying a step.
func (p *ProgressController) StartStep(name string) {
	if p == nil || p.display == nil {
		return
	}
	p.display.Start(name)
}

// CompleteStep marks the current step as done. An empty msg repeats the
// step name.
func (p *ProgressController) CompleteStep(msg string) {
	if p == nil || p.display == nil {
		return
	}
	p.display.Succeed(msg)
}

// FailStep marks the current step as failed with err.
func (p *ProgressController) FailStep(err error) {
	if p == nil || p.display == nil || err == nil {
		return
	}
	p.display.Fail(err.Error())
}

// StopSpinner stops the spinner without a completion line.
// Used before printing output that must not interleave with the spinner.
func (p *ProgressController) StopSpinner() {
	if p == nil || p.display == nil {
		return
	}
	p.display.Stop()
}

// HasDisplay returns true if a progress display is configured.
func (p *ProgressController) HasDisplay() bool {
	return p != nil && p.display != nil
}

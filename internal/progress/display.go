package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

const spinnerDelay = 100 * time.Millisecond

// Display shows one step at a time. The spinner only runs on a TTY;
// otherwise Start prints nothing and the outcome line is still written.
type Display struct {
	out     io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols

	mu      sync.Mutex
	spinner *spinner.Spinner
	step    string
}

// NewDisplay creates a Display writing to out.
func NewDisplay(out io.Writer, caps TerminalCapabilities) *Display {
	return &Display{
		out:     out,
		caps:    caps,
		symbols: SelectSymbols(caps),
	}
}

// Start begins a step named msg.
func (d *Display) Start(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.step = msg
	if !d.caps.IsTTY {
		return
	}

	s := spinner.New(spinner.CharSets[d.symbols.SpinnerSet], spinnerDelay, spinner.WithWriter(d.out))
	s.Suffix = " " + msg
	if d.caps.SupportsColor {
		_ = s.Color("cyan")
	}
	s.Start()
	d.spinner = s
}

// Succeed ends the current step with a check mark. An empty msg repeats
// the step name.
func (d *Display) Succeed(msg string) {
	d.finish(d.symbols.Checkmark, color.FgGreen, msg)
}

// Fail ends the current step with a failure marker.
func (d *Display) Fail(msg string) {
	d.finish(d.symbols.Failure, color.FgRed, msg)
}

func (d *Display) finish(symbol string, attr color.Attribute, msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	if msg == "" {
		msg = d.step
	}
	d.step = ""
	if d.caps.SupportsColor {
		symbol = color.New(attr).Sprint(symbol)
	}
	fmt.Fprintf(d.out, "%s %s\n", symbol, msg)
}

// Stop halts the spinner without printing an outcome.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Display) stopLocked() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}

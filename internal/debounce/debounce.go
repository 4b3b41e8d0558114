// Package debounce collapses bursts of triggers into one call.
package debounce

import (
	"sync"
	"time"
)

// afterFunc is swapped in tests to control timer callbacks.
var afterFunc = time.AfterFunc

// Debouncer runs fn once delay has passed without a new Trigger.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
	fn    func()
}

// New returns a Debouncer for fn.
func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Ensure returns *d, creating it first when nil.
func Ensure(d **Debouncer, delay time.Duration, fn func()) *Debouncer {
	if *d == nil {
		*d = New(delay, fn)
	}
	return *d
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = afterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs fn unless a later Trigger or Stop superseded gen. A timer
// that already fired cannot be stopped, so the generation check is what
// keeps a stale callback from running.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	current := d.gen == gen && d.timer != nil
	if current {
		d.timer = nil
	}
	d.mu.Unlock()
	if current {
		d.fn()
	}
}

// Stop cancels a pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerIgnoresStaleTimerCallback(t *testing.T) {
	origAfterFunc := afterFunc
	t.Cleanup(func() { afterFunc = origAfterFunc })

	var callbacks []func()
	afterFunc = func(_ time.Duration, f func()) *time.Timer {
		callbacks = append(callbacks, f)
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		return timer
	}

	var called atomic.Int32
	d := New(time.Second, func() {
		called.Add(1)
	})

	d.Trigger()
	d.Trigger()

	if len(callbacks) != 2 {
		t.Fatalf("expected 2 scheduled callbacks, got %d", len(callbacks))
	}

	callbacks[0]()
	callbacks[1]()

	if got := called.Load(); got != 1 {
		t.Fatalf("expected only latest callback to run, got %d calls", got)
	}
}

func TestDebouncerStopIgnoresPendingTimerCallback(t *testing.T) {
	origAfterFunc := afterFunc
	t.Cleanup(func() { afterFunc = origAfterFunc })

	var callback func()
	afterFunc = func(_ time.Duration, f func()) *time.Timer {
		callback = f
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		return timer
	}

	var called atomic.Int32
	d := New(time.Second, func() {
		called.Add(1)
	})

	d.Trigger()
	d.Stop()

	if callback == nil {
		t.Fatalf("expected a scheduled callback")
	}
	callback()

	if got := called.Load(); got != 0 {
		t.Fatalf("expected callback to be ignored after stop, got %d calls", got)
	}
}

func TestDebouncerTriggerOnce(t *testing.T) {
	var count int32
	done := make(chan struct{})
	d := New(10*time.Millisecond, func() {
		atomic.AddInt32(&count, 1)
		close(done)
	})
	d.Trigger()
	d.Trigger()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&count) != 1 {
		t.Fatalf("expected one invocation, got %d", count)
	}
}

func TestEnsureReusesDebouncer(t *testing.T) {
	var called int32
	var d *Debouncer
	first := Ensure(&d, 5*time.Millisecond, func() { atomic.AddInt32(&called, 1) })
	second := Ensure(&d, 5*time.Millisecond, func() { atomic.AddInt32(&called, 10) })
	if first != second || d != first {
		t.Fatal("Ensure should not allocate a new debouncer when already set")
	}
	first.Trigger()
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&called) != 1 {
		t.Fatalf("expected the original handler once, got %d", called)
	}
}

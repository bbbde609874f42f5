package debounce

import (
	"sync/atomic"
	"testing"
	"time"
)

// stubTimers replaces afterFunc for the test and returns the callbacks it
// scheduled, in order.
func stubTimers(t *testing.T) *[]func() {
	t.Helper()
	orig := afterFunc
	t.Cleanup(func() { afterFunc = orig })

	var scheduled []func()
	afterFunc = func(_ time.Duration, f func()) *time.Timer {
		scheduled = append(scheduled, f)
		timer := time.NewTimer(time.Hour)
		timer.Stop()
		return timer
	}
	return &scheduled
}

func TestTriggerRunsLatestOnly(t *testing.T) {
	scheduled := stubTimers(t)

	var calls atomic.Int32
	d := New(time.Second, func() { calls.Add(1) })
	d.Trigger()
	d.Trigger()
	d.Trigger()

	if len(*scheduled) != 3 {
		t.Fatalf("scheduled = %d, want 3", len(*scheduled))
	}
	for _, f := range *scheduled {
		f()
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestTriggerAfterFireSchedulesAgain(t *testing.T) {
	scheduled := stubTimers(t)

	var calls atomic.Int32
	d := New(time.Second, func() { calls.Add(1) })
	d.Trigger()
	(*scheduled)[0]()
	d.Trigger()
	(*scheduled)[1]()

	if got := calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestStopDropsPendingCall(t *testing.T) {
	scheduled := stubTimers(t)

	var calls atomic.Int32
	d := New(time.Second, func() { calls.Add(1) })
	d.Trigger()
	d.Stop()
	(*scheduled)[0]()

	if got := calls.Load(); got != 0 {
		t.Fatalf("calls = %d, want 0", got)
	}
}

func TestEnsure(t *testing.T) {
	stubTimers(t)

	var d *Debouncer
	first := Ensure(&d, time.Millisecond, func() {})
	if first == nil || first != d {
		t.Fatalf("Ensure = %p, stored %p", first, d)
	}
	second := Ensure(&d, time.Hour, func() {})
	if second != first {
		t.Fatal("Ensure replaced an existing debouncer")
	}
	if second.delay != time.Millisecond {
		t.Fatalf("delay = %v, want %v", second.delay, time.Millisecond)
	}
}

func TestDebouncerRealTimer(t *testing.T) {
	done := make(chan struct{})
	var calls atomic.Int32
	d := New(10*time.Millisecond, func() {
		if calls.Add(1) == 1 {
			close(done)
		}
	})
	for range 5 {
		d.Trigger()
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}
	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

package tracker

import (
	"sync"
	"time"
)

// Handle is a scheduled callback which has not yet fired.
type Handle interface {
	Cancel() // cancel the callback; no-op if it has already fired
}

// Scheduler schedules callbacks after a delay.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Handle
}

// ClockScheduler is a Scheduler on top of time.AfterFunc. Callbacks run on
// a goroutine of their own.
type ClockScheduler struct{}

// Schedule is part of interface Scheduler.
func (ClockScheduler) Schedule(d time.Duration, fn func()) Handle {
	return timerHandle{time.AfterFunc(d, fn)}
}

type timerHandle struct {
	t *time.Timer
}

func (h timerHandle) Cancel() {
	h.t.Stop()
}

// debouncer coalesces bursts of calls: only the last call within a
// quiescence window runs. At most one callback is pending at any time.
type debouncer struct {
	mu      sync.Mutex
	sched   Scheduler
	window  time.Duration
	pending Handle
	seq     uint64 // guards against callbacks which fired despite Cancel
}

func newDebouncer(sched Scheduler, window time.Duration) *debouncer {
	if sched == nil {
		sched = ClockScheduler{}
	}
	return &debouncer{sched: sched, window: window}
}

// trigger cancels the pending callback, if any, and schedules fn.
func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Cancel()
	}
	d.seq++
	seq := d.seq
	d.pending = d.sched.Schedule(d.window, func() {
		d.mu.Lock()
		if seq != d.seq {
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// stop cancels the pending callback, if any.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
	d.seq++
}

// isPending is a predicate: is a callback scheduled?
func (d *debouncer) isPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

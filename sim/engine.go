package sim

import (
	"github.com/wavelab/wavesim/vtime"
)

// TimeTeller can be used to get the current virtual time.
type TimeTeller interface {
	Now() vtime.Time
	Resolution() vtime.Resolution
}

// Scheduler is the sole mechanism collaborators use to defer work. All
// scheduling primitives reject negative delays with ErrInvalidDelay and
// fail with ErrNotRunnable once the engine is destroyed.
type Scheduler interface {
	TimeTeller

	// ScheduleAfter schedules a callback delay ticks after the current
	// virtual time, in the caller's ambient context.
	ScheduleAfter(delay vtime.Duration, cb Callback) (EventHandle, error)

	// ScheduleAt schedules a callback in an explicitly named context, for
	// cross-context work such as a transmitter scheduling a reception in
	// the receiver's context.
	ScheduleAt(
		ctx ContextID,
		delay vtime.Duration,
		cb Callback,
	) (EventHandle, error)

	// ScheduleNow schedules a callback at the current virtual time. It
	// enqueues behind prior same-instant events and never preempts the
	// callback currently executing.
	ScheduleNow(cb Callback) (EventHandle, error)

	// ScheduleDestroy registers a cleanup callback invoked only during
	// Destroy, in registration order, independent of virtual time.
	ScheduleDestroy(cb Callback) (EventHandle, error)

	// Cancel marks the referenced event cancelled. It is idempotent and
	// returns false if the event already fired or was already cancelled.
	Cancel(h EventHandle) bool
}

// An Engine drives a discrete-event simulation: it owns the event queue
// and the virtual clock, dispatches callbacks in (time, sequence) order,
// and manages the run lifecycle.
type Engine interface {
	Hookable
	Scheduler

	// Run processes events until the queue drains, a stop request is
	// honored, or a callback faults.
	Run() error

	// RunUntil processes events up to and including time t.
	RunUntil(t vtime.Time) error

	// Stop requests loop termination after the current event.
	Stop()

	// StopAt requests loop termination once the next event would fire
	// strictly later than t. A bound in the past stops the loop after the
	// current event.
	StopAt(t vtime.Time)

	// Pause blocks the run loop between two events until Continue is
	// called.
	Pause()

	// Continue resumes a paused run loop.
	Continue()

	// Destroy fires the registered cleanup events in order, discards all
	// remaining pending events without invoking them, and transitions the
	// engine to its terminal state.
	Destroy() error
}

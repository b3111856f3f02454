package sim

import (
	"fmt"
	"log"
	"sync"

	"github.com/wavelab/wavesim/vtime"
)

type simState int

const (
	stateUninitialized simState = iota
	stateRunning
	stateStopped
	stateDestroyed
)

// A Simulator owns the event queue and the virtual clock, and drives the
// discrete-event run loop. Callbacks execute cooperatively on a single
// logical thread of control, in strict (fire time, insertion sequence)
// order; same-instant events fire in the order they were scheduled.
//
// A Simulator is an explicitly constructed instance. Multiple independent
// simulators can coexist, each with its own clock and queue.
type Simulator struct {
	HookableBase

	res vtime.Resolution

	timeLock sync.RWMutex
	now      vtime.Time

	queue    *EventQueue
	contexts *contextRegistry

	stateLock sync.Mutex
	state     simState

	destroyLock   sync.Mutex
	destroyEvents []*event

	stopLock      sync.Mutex
	stopRequested bool
	stopTime      vtime.Time
	hasStopTime   bool

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex
}

// NewSimulator creates a Simulator with the default nanosecond clock
// resolution.
func NewSimulator() *Simulator {
	return NewSimulatorWithResolution(vtime.Nanosecond)
}

// NewSimulatorWithResolution creates a Simulator whose virtual clock
// counts ticks at the given resolution.
func NewSimulatorWithResolution(r vtime.Resolution) *Simulator {
	return &Simulator{
		res:      r,
		queue:    NewEventQueue(),
		contexts: newContextRegistry(),
	}
}

// Now returns the current virtual time. It is monotonically non-decreasing
// across the lifetime of the simulation.
func (s *Simulator) Now() vtime.Time {
	return s.readNow()
}

// Resolution returns the tick resolution of the virtual clock.
func (s *Simulator) Resolution() vtime.Resolution {
	return s.res
}

// Context returns the context on whose behalf the current callback
// executes, or AnyContext when no event is on the call stack.
func (s *Simulator) Context() ContextID {
	return s.contexts.current()
}

// ContextTime returns the virtual time at which the given context's event
// most recently began executing, or 0 if no event ever ran for it.
func (s *Simulator) ContextTime(id ContextID) vtime.Time {
	return s.contexts.startedAt(id)
}

// ScheduleAfter schedules a callback delay ticks after the current virtual
// time, owned by the caller's ambient context.
func (s *Simulator) ScheduleAfter(
	delay vtime.Duration,
	cb Callback,
) (EventHandle, error) {
	return s.schedule(s.contexts.current(), delay, cb)
}

// ScheduleAt schedules a callback in an explicitly named context.
func (s *Simulator) ScheduleAt(
	ctx ContextID,
	delay vtime.Duration,
	cb Callback,
) (EventHandle, error) {
	return s.schedule(ctx, delay, cb)
}

// ScheduleNow schedules a callback at the current virtual time. The event
// enqueues behind any prior same-instant events and never preempts the
// callback currently executing.
func (s *Simulator) ScheduleNow(cb Callback) (EventHandle, error) {
	return s.schedule(s.contexts.current(), 0, cb)
}

func (s *Simulator) schedule(
	ctx ContextID,
	delay vtime.Duration,
	cb Callback,
) (EventHandle, error) {
	if cb == nil {
		log.Panic("scheduling a nil callback")
	}

	if err := s.mustBeRunnable(); err != nil {
		return EventHandle{}, err
	}

	if delay < 0 {
		return EventHandle{}, fmt.Errorf("%w: got %d ticks",
			ErrInvalidDelay, delay)
	}

	fireAt, err := s.readNow().Add(delay)
	if err != nil {
		return EventHandle{}, err
	}

	return s.queue.Insert(fireAt, ctx, cb), nil
}

// ScheduleDestroy registers a cleanup callback that fires only during
// Destroy, in registration order, independent of remaining virtual time.
func (s *Simulator) ScheduleDestroy(cb Callback) (EventHandle, error) {
	if cb == nil {
		log.Panic("scheduling a nil callback")
	}

	if err := s.mustBeRunnable(); err != nil {
		return EventHandle{}, err
	}

	evt, handle := s.queue.insertDetached(s.contexts.current(), cb)

	s.destroyLock.Lock()
	s.destroyEvents = append(s.destroyEvents, evt)
	s.destroyLock.Unlock()

	return handle, nil
}

// Cancel marks the referenced event cancelled so its callback will never
// be invoked. Cancelling twice, or cancelling after the event fired, is a
// safe no-op that returns false.
func (s *Simulator) Cancel(h EventHandle) bool {
	return h.Cancel()
}

func (s *Simulator) mustBeRunnable() error {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if s.state == stateDestroyed {
		return ErrNotRunnable
	}
	return nil
}

func (s *Simulator) readNow() vtime.Time {
	s.timeLock.RLock()
	t := s.now
	s.timeLock.RUnlock()
	return t
}

func (s *Simulator) writeNow(t vtime.Time) {
	s.timeLock.Lock()
	s.now = t
	s.timeLock.Unlock()
}

// Run processes all scheduled events in order until the queue drains, a
// stop request is honored, or a callback faults. A fault propagates out
// unwrapped in a CallbackFault and terminates the loop; the engine never
// retries or swallows failed callbacks.
//
// Run can be called again after the loop exits, as long as Destroy has
// not been called.
func (s *Simulator) Run() error {
	if err := s.enterRunning(); err != nil {
		return err
	}
	defer s.leaveRunning()

	s.singleRunLock.Lock()
	defer s.singleRunLock.Unlock()

	for {
		if s.stopHonored() {
			return nil
		}

		next := s.queue.peek()
		if next == nil {
			return nil
		}
		if s.beyondStopTime(next.time) {
			return nil
		}

		s.pauseLock.Lock()
		err := s.processOneEvent()
		s.pauseLock.Unlock()

		if err != nil {
			return err
		}
	}
}

func (s *Simulator) processOneEvent() error {
	evt := s.queue.pop()

	now := s.readNow()
	if evt.time < now {
		log.Panicf("cannot run event in the past, evt %d @ %d, now %d",
			evt.seq, evt.time, now)
	}
	s.writeNow(evt.time)

	// A cancelled event still advances the clock to its fire time but
	// contributes no invocation.
	cb, live := s.queue.claim(evt)
	if !live {
		s.queue.finalize(evt, eventCancelled)
		return nil
	}
	s.queue.finalize(evt, eventFired)

	info := EventInfo{
		Seq:     evt.seq,
		Time:    evt.time,
		Context: evt.context,
	}

	hookCtx := HookCtx{
		Domain: s,
		Pos:    HookPosBeforeEvent,
		Item:   info,
	}
	s.InvokeHook(hookCtx)

	if err := s.invoke(evt.context, cb); err != nil {
		return &CallbackFault{
			Time:    evt.time,
			Context: evt.context,
			Seq:     evt.seq,
			Err:     err,
		}
	}

	hookCtx.Pos = HookPosAfterEvent
	s.InvokeHook(hookCtx)

	return nil
}

// invoke runs a callback with its owning context active. The previous
// context is restored on every exit path, including panics.
func (s *Simulator) invoke(ctx ContextID, cb Callback) error {
	s.contexts.push(ctx, s.readNow())
	defer s.contexts.pop()

	return cb()
}

// RunUntil processes events up to and including time t, then stops.
func (s *Simulator) RunUntil(t vtime.Time) error {
	s.StopAt(t)
	return s.Run()
}

// Stop requests termination of the run loop after the current event.
func (s *Simulator) Stop() {
	s.stopLock.Lock()
	s.stopRequested = true
	s.stopLock.Unlock()
}

// StopAt requests termination of the run loop once the next event would
// fire strictly later than t. Events at exactly t still fire. A bound in
// the past stops the loop immediately after the current event.
func (s *Simulator) StopAt(t vtime.Time) {
	s.stopLock.Lock()
	s.hasStopTime = true
	s.stopTime = t
	if t < s.readNow() {
		s.stopRequested = true
	}
	s.stopLock.Unlock()
}

func (s *Simulator) stopHonored() bool {
	s.stopLock.Lock()
	defer s.stopLock.Unlock()
	return s.stopRequested
}

func (s *Simulator) beyondStopTime(t vtime.Time) bool {
	s.stopLock.Lock()
	defer s.stopLock.Unlock()
	return s.hasStopTime && t > s.stopTime
}

func (s *Simulator) enterRunning() error {
	s.stateLock.Lock()
	defer s.stateLock.Unlock()

	if s.state == stateDestroyed {
		return ErrNotRunnable
	}
	s.state = stateRunning

	return nil
}

func (s *Simulator) leaveRunning() {
	s.stateLock.Lock()
	if s.state == stateRunning {
		s.state = stateStopped
	}
	s.stateLock.Unlock()

	// Stop requests are scoped to the run they interrupted.
	s.stopLock.Lock()
	s.stopRequested = false
	s.hasStopTime = false
	s.stopLock.Unlock()
}

// Pause prevents the Simulator from dispatching more events until
// Continue is called. The event being processed runs to completion.
func (s *Simulator) Pause() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if s.isPaused {
		return
	}

	s.pauseLock.Lock()
	s.isPaused = true
}

// Continue allows a paused Simulator to dispatch events again.
func (s *Simulator) Continue() {
	s.isPausedLock.Lock()
	defer s.isPausedLock.Unlock()

	if !s.isPaused {
		return
	}

	s.pauseLock.Unlock()
	s.isPaused = false
}

// Destroy drains the cleanup events registered with ScheduleDestroy, in
// registration order, then releases every remaining pending event without
// invoking it and puts the engine in its terminal state. Scheduling after
// Destroy fails with ErrNotRunnable. Destroy is idempotent: the second
// call does nothing and returns nil.
func (s *Simulator) Destroy() error {
	s.stateLock.Lock()
	if s.state == stateDestroyed {
		s.stateLock.Unlock()
		return nil
	}
	s.state = stateDestroyed
	s.stateLock.Unlock()

	fault := s.drainDestroyEvents()
	s.releasePendingEvents()

	return fault
}

func (s *Simulator) drainDestroyEvents() error {
	s.destroyLock.Lock()
	events := s.destroyEvents
	s.destroyEvents = nil
	s.destroyLock.Unlock()

	var fault error

	for _, evt := range events {
		cb, live := s.queue.claim(evt)
		if !live {
			s.queue.finalize(evt, eventCancelled)
			continue
		}
		s.queue.finalize(evt, eventFired)

		info := EventInfo{
			Seq:     evt.seq,
			Time:    s.readNow(),
			Context: evt.context,
			Destroy: true,
		}

		hookCtx := HookCtx{
			Domain: s,
			Pos:    HookPosBeforeEvent,
			Item:   info,
		}
		s.InvokeHook(hookCtx)

		if err := s.invoke(evt.context, cb); err != nil && fault == nil {
			fault = &CallbackFault{
				Time:    s.readNow(),
				Context: evt.context,
				Seq:     evt.seq,
				Err:     err,
			}
			continue
		}

		hookCtx.Pos = HookPosAfterEvent
		s.InvokeHook(hookCtx)
	}

	return fault
}

func (s *Simulator) releasePendingEvents() {
	for !s.queue.IsEmpty() {
		evt := s.queue.pop()
		s.queue.finalize(evt, eventCancelled)
	}
}

package sim

import (
	"github.com/wavelab/wavesim/vtime"
)

// A Callback is a deferred unit of work invoked by the simulator when its
// event fires. Arguments are bound at schedule time by closing over them.
// A non-nil return value is treated as an unrecoverable fault and
// propagates out of Run.
type Callback func() error

// ContextID identifies the logical execution context (e.g., a simulated
// node) on whose behalf an event executes. The engine does not interpret
// the id beyond bookkeeping.
type ContextID int64

// AnyContext marks events that do not belong to a particular simulated
// entity, such as engine-level bookkeeping work.
const AnyContext ContextID = -1

type eventState uint8

const (
	eventPending eventState = iota
	eventFired
	eventCancelled
)

// event is one scheduled unit of work. Storage is owned exclusively by the
// event queue; handles refer to events by sequence number only.
type event struct {
	seq      uint64
	time     vtime.Time
	context  ContextID
	callback Callback
	state    eventState
	destroy  bool
}

// EventInfo describes a dispatched event to hooks. It carries identity
// only, never the callback itself.
type EventInfo struct {
	Seq     uint64
	Time    vtime.Time
	Context ContextID
	Destroy bool
}

// An EventHandle is a lightweight, copyable reference to a scheduled
// event. It stays valid after the event fires or is cancelled, at which
// point it reports expired and all operations become no-ops. The zero
// value is an expired handle.
type EventHandle struct {
	seq   uint64
	queue *EventQueue
}

// IsExpired returns true if the referenced event has fired, has been
// cancelled, or never existed.
func (h EventHandle) IsExpired() bool {
	if h.queue == nil {
		return true
	}
	return h.queue.expired(h.seq)
}

// Cancel marks the referenced event cancelled so its callback will never
// be invoked. It returns false if the event already fired or was already
// cancelled. Cancelling is idempotent, and cancelling the event currently
// being executed is a safe no-op.
func (h EventHandle) Cancel() bool {
	if h.queue == nil {
		return false
	}
	return h.queue.Remove(h)
}

// Same reports whether two handles refer to the same scheduled event.
func (h EventHandle) Same(o EventHandle) bool {
	return h.queue != nil && h.queue == o.queue && h.seq == o.seq
}

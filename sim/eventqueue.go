package sim

import (
	"container/heap"
	"sync"

	"github.com/wavelab/wavesim/vtime"
)

// An EventQueue holds pending events ordered by (fire time, insertion
// sequence). The sequence number provides the deterministic FIFO tie-break
// among events scheduled for the same instant, and is never reused over
// the lifetime of the queue.
//
// The queue exclusively owns event storage. Cancellation is lazy: a
// removed event stays in the heap, marked cancelled, and is discarded when
// it reaches the front.
type EventQueue struct {
	sync.Mutex
	events  eventHeap
	live    map[uint64]*event
	nextSeq uint64
}

// NewEventQueue creates and returns a newly created EventQueue.
func NewEventQueue() *EventQueue {
	q := &EventQueue{
		live: make(map[uint64]*event),
	}
	q.events = make([]*event, 0)
	heap.Init(&q.events)
	return q
}

// Insert adds an event to the queue and returns a handle for it. The
// caller guarantees the fire time is not in the past.
func (q *EventQueue) Insert(
	t vtime.Time,
	ctx ContextID,
	cb Callback,
) EventHandle {
	q.Lock()
	defer q.Unlock()

	evt := q.newEventLocked(t, ctx, cb)
	heap.Push(&q.events, evt)

	return EventHandle{seq: evt.seq, queue: q}
}

// insertDetached registers an event without placing it in the heap. Used
// for destroy events, which fire during teardown rather than in time
// order.
func (q *EventQueue) insertDetached(
	ctx ContextID,
	cb Callback,
) (*event, EventHandle) {
	q.Lock()
	defer q.Unlock()

	evt := q.newEventLocked(0, ctx, cb)
	evt.destroy = true

	return evt, EventHandle{seq: evt.seq, queue: q}
}

func (q *EventQueue) newEventLocked(
	t vtime.Time,
	ctx ContextID,
	cb Callback,
) *event {
	q.nextSeq++
	evt := &event{
		seq:      q.nextSeq,
		time:     t,
		context:  ctx,
		callback: cb,
		state:    eventPending,
	}
	q.live[evt.seq] = evt

	return evt
}

// Len returns the number of events still in the heap, including cancelled
// events that have not been discarded yet.
func (q *EventQueue) Len() int {
	q.Lock()
	defer q.Unlock()
	return q.events.Len()
}

// IsEmpty returns true if no event is waiting in the heap.
func (q *EventQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Remove marks the event referenced by the handle cancelled. It returns
// false if the event already fired or was already cancelled. Removing
// twice is safe.
func (q *EventQueue) Remove(h EventHandle) bool {
	q.Lock()
	defer q.Unlock()

	evt, ok := q.live[h.seq]
	if !ok || evt.state != eventPending {
		return false
	}

	evt.state = eventCancelled
	return true
}

// pop removes and returns the earliest event. The caller must check
// IsEmpty first.
func (q *EventQueue) pop() *event {
	q.Lock()
	defer q.Unlock()
	return heap.Pop(&q.events).(*event)
}

// peek returns the earliest event without removing it, or nil if the
// queue is empty.
func (q *EventQueue) peek() *event {
	q.Lock()
	defer q.Unlock()

	if q.events.Len() == 0 {
		return nil
	}
	return q.events[0]
}

// claim marks a popped event fired, winning any race against a late
// cancellation. It returns false if the event was cancelled before it
// could fire, together with the callback to invoke when the claim
// succeeds.
func (q *EventQueue) claim(evt *event) (Callback, bool) {
	q.Lock()
	defer q.Unlock()

	if evt.state != eventPending {
		return nil, false
	}

	evt.state = eventFired
	return evt.callback, true
}

// finalize releases the storage slot of a settled event. Outstanding
// handles keep reporting expired through the liveness index.
func (q *EventQueue) finalize(evt *event, state eventState) {
	q.Lock()
	defer q.Unlock()

	if evt.state == eventPending {
		evt.state = state
	}
	evt.callback = nil
	delete(q.live, evt.seq)
}

// expired reports whether the event with the given sequence number is no
// longer pending.
func (q *EventQueue) expired(seq uint64) bool {
	q.Lock()
	defer q.Unlock()

	evt, ok := q.live[seq]
	return !ok || evt.state != eventPending
}

type eventHeap []*event

// Len returns the length of the event queue
func (h eventHeap) Len() int {
	return len(h)
}

// Less determines the order between two events. Less returns true if the
// i-th event happens before the j-th event. Same-time events keep their
// insertion order.
func (h eventHeap) Less(i, j int) bool {
	if h[i].time != h[j].time {
		return h[i].time < h[j].time
	}
	return h[i].seq < h[j].seq
}

// Swap changes the position of two events in the event queue
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

// Push adds an event into the event queue
func (h *eventHeap) Push(x any) {
	evt := x.(*event)
	*h = append(*h, evt)
}

// Pop removes and returns the next event to happen
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	evt := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return evt
}

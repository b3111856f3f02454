package sim

import (
	"sync"

	"github.com/wavelab/wavesim/vtime"
)

// contextRegistry tracks which logical context is active while an event is
// on the call stack, and the virtual time at which each context's event
// most recently began executing. Cross-context scheduling makes the active
// context observable state: code running for context A can ask for A's
// local now even while scheduling work into context B.
type contextRegistry struct {
	mu      sync.RWMutex
	stack   []ContextID
	started map[ContextID]vtime.Time
}

func newContextRegistry() *contextRegistry {
	return &contextRegistry{
		started: make(map[ContextID]vtime.Time),
	}
}

// push makes id the active context and records the dispatch time. Every
// push must be paired with a pop on all exit paths, including callback
// failure.
func (r *contextRegistry) push(id ContextID, now vtime.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stack = append(r.stack, id)
	if id != AnyContext {
		r.started[id] = now
	}
}

// pop restores the previously active context.
func (r *contextRegistry) pop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.stack) == 0 {
		return
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// current returns the active context, or AnyContext when no event is on
// the call stack.
func (r *contextRegistry) current() ContextID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.stack) == 0 {
		return AnyContext
	}
	return r.stack[len(r.stack)-1]
}

// startedAt returns the time at which the given context's event most
// recently began executing, or 0 if no event ever ran for it.
func (r *contextRegistry) startedAt(id ContextID) vtime.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.started[id]
}

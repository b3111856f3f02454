package sim

import (
	"sync"

	"github.com/wavelab/wavesim/vtime"
)

// A Ticker is an object that updates states with ticks.
type Ticker interface {
	Tick() bool
}

// TickScheduler schedules periodic tick events for cycle-based models. A
// tick keeps re-arming itself while the Ticker reports progress, and goes
// quiet otherwise until TickNow or TickLater is called again.
type TickScheduler struct {
	lock      sync.Mutex
	scheduler Scheduler
	ticker    Ticker
	Freq      vtime.Freq

	nextTickTime vtime.Time
	pending      EventHandle
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(
	ticker Ticker,
	scheduler Scheduler,
	freq vtime.Freq,
) *TickScheduler {
	t := new(TickScheduler)

	t.ticker = ticker
	t.scheduler = scheduler
	t.Freq = freq
	t.nextTickTime = -1 // This will make sure the first tick is scheduled

	return t
}

// TickNow schedules a tick event at the current tick boundary.
func (t *TickScheduler) TickNow() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.scheduler.Now()
	tickTime := t.Freq.ThisTick(now, t.scheduler.Resolution())

	return t.armLocked(now, tickTime)
}

// TickLater schedules a tick event at the tick boundary after the current
// time.
func (t *TickScheduler) TickLater() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := t.scheduler.Now()
	tickTime := t.Freq.NextTick(now, t.scheduler.Resolution())

	return t.armLocked(now, tickTime)
}

func (t *TickScheduler) armLocked(now, tickTime vtime.Time) error {
	if t.nextTickTime >= tickTime && !t.pending.IsExpired() {
		return nil
	}

	delay, err := tickTime.Sub(now)
	if err != nil {
		return err
	}

	handle, err := t.scheduler.ScheduleAfter(delay, t.handleTick)
	if err != nil {
		return err
	}

	t.nextTickTime = tickTime
	t.pending = handle

	return nil
}

// Stop cancels the pending tick, if any. The ticker stays usable and can
// be re-armed with TickNow or TickLater.
func (t *TickScheduler) Stop() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.pending.Cancel()
	t.nextTickTime = -1
}

func (t *TickScheduler) handleTick() error {
	madeProgress := t.ticker.Tick()
	if madeProgress {
		return t.TickLater()
	}

	return nil
}

package datarecording

import (
	"github.com/wavelab/wavesim/sim"
	"github.com/wavelab/wavesim/vtime"
)

// EventTrace is one recorded event dispatch.
type EventTrace struct {
	Seq     uint64
	TimeSec float64
	Context int64
	Phase   string
}

// An EventTracer is a hook that records every dispatched event through a
// DataRecorder.
type EventTracer struct {
	recorder DataRecorder
	res      vtime.Resolution
}

// NewEventTracer creates an EventTracer writing into the given recorder.
func NewEventTracer(
	recorder DataRecorder,
	res vtime.Resolution,
) *EventTracer {
	recorder.CreateTable("events", EventTrace{})

	return &EventTracer{
		recorder: recorder,
		res:      res,
	}
}

// Func records the event information.
func (t *EventTracer) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosBeforeEvent {
		return
	}

	info, ok := ctx.Item.(sim.EventInfo)
	if !ok {
		return
	}

	phase := "event"
	if info.Destroy {
		phase = "destroy"
	}

	t.recorder.InsertData("events", EventTrace{
		Seq:     info.Seq,
		TimeSec: t.res.ToSeconds(info.Time),
		Context: int64(info.Context),
		Phase:   phase,
	})
}

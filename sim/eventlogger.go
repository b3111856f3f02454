package sim

import (
	"log"

	"github.com/wavelab/wavesim/vtime"
)

// EventLogger is a hook that prints a line for each dispatched event.
type EventLogger struct {
	LogHookBase

	res vtime.Resolution
}

// NewEventLogger returns a new EventLogger that writes into the given
// logger.
func NewEventLogger(logger *log.Logger, res vtime.Resolution) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger
	h.res = res
	return h
}

// Func writes the event information into the logger
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	info, ok := ctx.Item.(EventInfo)
	if !ok {
		return
	}

	if info.Destroy {
		h.Logger.Printf("destroy, event %d, context %d",
			info.Seq, info.Context)
		return
	}

	h.Logger.Printf("%.10f, event %d, context %d",
		h.res.ToSeconds(info.Time), info.Seq, info.Context)
}

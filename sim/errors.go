package sim

import (
	"errors"
	"fmt"

	"github.com/wavelab/wavesim/vtime"
)

// ErrInvalidDelay is returned when a scheduling call is given a negative
// delay. Delays are never clamped.
var ErrInvalidDelay = errors.New("sim: delay must be non-negative")

// ErrNotRunnable is returned when a scheduling call or Run is attempted
// after the simulator has been destroyed.
var ErrNotRunnable = errors.New("sim: simulator has been destroyed")

// A CallbackFault reports that an invoked callback returned an error. It
// propagates out of Run and halts the simulation, since virtual-time
// integrity cannot be guaranteed after a partial failure.
type CallbackFault struct {
	Time    vtime.Time
	Context ContextID
	Seq     uint64
	Err     error
}

func (f *CallbackFault) Error() string {
	return fmt.Sprintf("sim: callback fault at t=%d (context %d, event %d): %v",
		f.Time, f.Context, f.Seq, f.Err)
}

func (f *CallbackFault) Unwrap() error {
	return f.Err
}

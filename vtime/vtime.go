// Package vtime defines the virtual clock used by the simulation engine.
// Virtual time is counted in integer ticks at a configurable resolution and
// is advanced only by event processing, never by the wall clock.
package vtime

import (
	"errors"
	"fmt"
	"math"
	stdtime "time"
)

// ErrOverflow is returned when a virtual-time computation exceeds the
// representable tick range. Overflow is always surfaced because silent
// wrapping would corrupt event ordering.
var ErrOverflow = errors.New("vtime: arithmetic overflow")

// Time is a point in virtual time, in ticks since the simulation start.
// The representable range is [math.MinInt64, math.MaxInt64] ticks, which at
// nanosecond resolution covers roughly 292 simulated years.
type Time int64

// Duration is a span of virtual time in ticks.
type Duration int64

// Resolution is the number of ticks per simulated second.
type Resolution int64

// Supported resolutions.
const (
	Second      Resolution = 1
	Millisecond Resolution = 1e3
	Microsecond Resolution = 1e6
	Nanosecond  Resolution = 1e9
	Picosecond  Resolution = 1e12
)

// Add returns t shifted by d.
func (t Time) Add(d Duration) (Time, error) {
	sum, ok := addInt64(int64(t), int64(d))
	if !ok {
		return 0, fmt.Errorf("%w: %d + %d ticks", ErrOverflow, t, d)
	}
	return Time(sum), nil
}

// Sub returns the duration t - u.
func (t Time) Sub(u Time) (Duration, error) {
	diff, ok := subInt64(int64(t), int64(u))
	if !ok {
		return 0, fmt.Errorf("%w: %d - %d ticks", ErrOverflow, t, u)
	}
	return Duration(diff), nil
}

// Before reports whether t is earlier than u.
func (t Time) Before(u Time) bool { return t < u }

// After reports whether t is later than u.
func (t Time) After(u Time) bool { return t > u }

// Equal reports whether t and u denote the same instant.
func (t Time) Equal(u Time) bool { return t == u }

// Add returns the duration d + o.
func (d Duration) Add(o Duration) (Duration, error) {
	sum, ok := addInt64(int64(d), int64(o))
	if !ok {
		return 0, fmt.Errorf("%w: %d + %d ticks", ErrOverflow, d, o)
	}
	return Duration(sum), nil
}

// Seconds converts a floating-point second count to a duration at
// resolution r, rounding to the nearest tick.
func (r Resolution) Seconds(s float64) (Duration, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, fmt.Errorf("%w: %v seconds is not a finite value",
			ErrOverflow, s)
	}

	ticks := math.Round(s * float64(r))
	if ticks > math.MaxInt64 || ticks < math.MinInt64 {
		return 0, fmt.Errorf("%w: %v seconds at %d ticks/s",
			ErrOverflow, s, r)
	}

	return Duration(ticks), nil
}

// Milliseconds converts a millisecond count to a duration at resolution r.
func (r Resolution) Milliseconds(ms int64) (Duration, error) {
	return r.scale(ms, Millisecond)
}

// Microseconds converts a microsecond count to a duration at resolution r.
func (r Resolution) Microseconds(us int64) (Duration, error) {
	return r.scale(us, Microsecond)
}

// Nanoseconds converts a nanosecond count to a duration at resolution r.
func (r Resolution) Nanoseconds(ns int64) (Duration, error) {
	return r.scale(ns, Nanosecond)
}

// FromStd converts a standard library duration to a virtual duration at
// resolution r.
func (r Resolution) FromStd(d stdtime.Duration) (Duration, error) {
	return r.scale(d.Nanoseconds(), Nanosecond)
}

// scale converts a count of 1/from seconds into ticks at resolution r.
func (r Resolution) scale(count int64, from Resolution) (Duration, error) {
	if r >= from {
		factor := int64(r) / int64(from)
		ticks, ok := mulInt64(count, factor)
		if !ok {
			return 0, fmt.Errorf("%w: %d * %d ticks", ErrOverflow,
				count, factor)
		}
		return Duration(ticks), nil
	}

	// Coarser resolution than the input unit. Integer division truncates
	// toward zero, so sub-tick amounts are dropped deterministically.
	factor := int64(from) / int64(r)
	return Duration(count / factor), nil
}

// ToSeconds converts a virtual time at resolution r to floating-point
// seconds. Intended for reporting only, as precision is lost beyond 2^53
// ticks.
func (r Resolution) ToSeconds(t Time) float64 {
	return float64(t) / float64(r)
}

// DurationToSeconds converts a duration at resolution r to floating-point
// seconds.
func (r Resolution) DurationToSeconds(d Duration) float64 {
	return float64(d) / float64(r)
}

func (r Resolution) String() string {
	switch r {
	case Second:
		return "s"
	case Millisecond:
		return "ms"
	case Microsecond:
		return "us"
	case Nanosecond:
		return "ns"
	case Picosecond:
		return "ps"
	default:
		return fmt.Sprintf("%d ticks/s", int64(r))
	}
}

func addInt64(a, b int64) (int64, bool) {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		return 0, false
	}
	return sum, true
}

func subInt64(a, b int64) (int64, bool) {
	diff := a - b
	if (a >= 0 && b < 0 && diff < 0) || (a < 0 && b > 0 && diff >= 0) {
		return 0, false
	}
	return diff, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == math.MinInt64 && b == -1) || (a == -1 && b == math.MinInt64) {
		return 0, false
	}
	product := a * b
	if product/b != a {
		return 0, false
	}
	return product, true
}

package vtime

import (
	"log"
	"math"
)

// Freq defines the type of frequency
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two consecutive ticks, in virtual ticks
// at resolution r. The frequency must divide into the resolution with at
// least one tick per cycle.
func (f Freq) Period(r Resolution) Duration {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	period := math.Round(float64(r) / float64(f))
	if period < 1 {
		log.Panicf("frequency %f is finer than resolution %s", f, r)
	}

	return Duration(period)
}

// Cycle converts a time to the number of cycles passed since time 0.
func (f Freq) Cycle(t Time, r Resolution) uint64 {
	return uint64(t / Time(f.Period(r)))
}

// ThisTick returns the current tick time
//
//	           Input
//	           (          ]
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (f Freq) ThisTick(now Time, r Resolution) Time {
	period := Time(f.Period(r))
	count := (now + period - 1) / period
	return count * period
}

// NextTick returns the next tick time.
//
//	           Input
//	           [          )
//	|----------|----------|----------|----->
//	                      |
//	                      Output
func (f Freq) NextTick(now Time, r Resolution) Time {
	period := Time(f.Period(r))
	count := now / period
	return (count + 1) * period
}

// NCyclesLater returns the time after N cycles
//
// This function will always return a time of an integer number of cycles
func (f Freq) NCyclesLater(n int, now Time, r Resolution) Time {
	period := Time(f.Period(r))
	return f.ThisTick(now+Time(n)*period, r)
}

// NoEarlierThan returns the tick time that is at or right after the given
// time
func (f Freq) NoEarlierThan(t Time, r Resolution) Time {
	return f.ThisTick(t, r)
}

// HalfTick returns the time in middle of two ticks
//
//	           Input
//	           (          ]
//	|----------|----------|----------|----->
//	                           |
//	                           Output
func (f Freq) HalfTick(t Time, r Resolution) Time {
	period := Time(f.Period(r))
	return f.ThisTick(t, r) + period/2
}

package logic

import (
	"fmt"
	"time"
)

// Ticks is a millisecond counter that wraps at TickPeriod.
type Ticks uint32

// TickPeriod is the wraparound period of the tick counter (2^29).
const TickPeriod = 1 << 29

const tickMask = TickPeriod - 1

// MaxSpan is the first tick span Diff can no longer measure (2^28).
// Tuning durations must stay below it.
const MaxSpan Ticks = TickPeriod / 2

// Diff returns the number of ticks elapsed from b to a, modulo TickPeriod.
//
// The result is only meaningful when the real elapsed time is below 2^28
// ticks. A b that is ahead of a yields a large value, never a negative one.
func Diff(a, b Ticks) Ticks {
	return (a - b) & tickMask
}

// Add returns t advanced by d ticks, wrapped to TickPeriod.
func Add(t, d Ticks) Ticks {
	return (t + d) & tickMask
}

// DurationTicks converts d to whole ticks (milliseconds), wrapped to TickPeriod.
func DurationTicks(d time.Duration) Ticks {
	return Ticks(uint64(d.Milliseconds()) & tickMask)
}

// Duration converts a tick count back to a time.Duration.
func (t Ticks) Duration() time.Duration {
	return time.Duration(t) * time.Millisecond
}

// TicksFromDuration converts d to ticks, rejecting values DurationTicks
// would wrap or truncate to zero.
func TicksFromDuration(d time.Duration) (Ticks, error) {
	if d < 0 {
		return 0, fmt.Errorf("%w: duration %v is negative", ErrConfig, d)
	}
	if d > 0 && d < time.Millisecond {
		return 0, fmt.Errorf("%w: duration %v is below one tick (1ms)", ErrConfig, d)
	}
	if d >= MaxSpan.Duration() {
		return 0, fmt.Errorf("%w: duration %v must be below %v", ErrConfig, d, MaxSpan.Duration())
	}
	return DurationTicks(d), nil
}

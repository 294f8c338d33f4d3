//go:build linux

package tick

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/sweeney/button-handler/internal/logic"
)

// Monotonic reads CLOCK_MONOTONIC, the clock the kernel stamps GPIO line
// events with, so source timestamps and poll times share one timeline.
func Monotonic() logic.Ticks {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return fallback()
	}
	return FromDuration(time.Duration(ts.Nano()))
}

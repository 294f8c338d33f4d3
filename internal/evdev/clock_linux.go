//go:build linux

package evdev

import (
	"os"

	"golang.org/x/sys/unix"
)

// EVIOCSCLOCKID, _IOW('E', 0xa0, int).
const eviocsclockid = 0x400445a0

// useMonotonicClock makes the device stamp events with CLOCK_MONOTONIC, the
// same clock as tick.Monotonic. It goes through SyscallConn so the file stays
// in non-blocking mode and Close can interrupt a pending read.
func useMonotonicClock(f *os.File) error {
	rc, err := f.SyscallConn()
	if err != nil {
		return err
	}
	var ioctlErr error
	if err := rc.Control(func(fd uintptr) {
		ioctlErr = unix.IoctlSetPointerInt(int(fd), eviocsclockid, unix.CLOCK_MONOTONIC)
	}); err != nil {
		return err
	}
	return ioctlErr
}

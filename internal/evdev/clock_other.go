//go:build !linux

package evdev

import (
	"errors"
	"os"
)

func useMonotonicClock(f *os.File) error {
	return errors.New("evdev: not supported on this platform (requires Linux)")
}

// Package gpio turns GPIO line edges into raw button events.
// The real implementation uses the Linux GPIO character device, which
// debounces in the kernel and stamps each edge with CLOCK_MONOTONIC.
// The fake implementation allows testing without hardware.
package gpio

import (
	"time"

	"github.com/sweeney/button-handler/internal/logic"
)

// Sink receives raw events. It must be safe to call from the source's goroutine.
type Sink interface {
	// Push enqueues e and reports whether it was accepted.
	Push(e logic.RawEvent) bool
}

// Source delivers button transitions to a Sink until closed.
type Source interface {
	// Close stops delivery and releases resources.
	Close() error
}

// Options configure a GPIO source.
type Options struct {
	// Chip is the GPIO chip name, e.g. "gpiochip0".
	Chip string
	// Pins are line offsets (BCM numbering); button id i is Pins[i].
	Pins []int
	// ActiveLow treats a low line as pressed and enables the pull-up.
	ActiveLow bool
	// Debounce is the kernel debounce period. Zero disables it.
	Debounce time.Duration
}

// Default options for a Raspberry Pi with buttons wired to ground.
const (
	DefaultChip     = "gpiochip0"
	DefaultDebounce = 10 * time.Millisecond
)

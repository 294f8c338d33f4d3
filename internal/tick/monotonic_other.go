//go:build !linux

package tick

import "github.com/sweeney/button-handler/internal/logic"

// Monotonic returns ticks since process start.
func Monotonic() logic.Ticks {
	return fallback()
}

// Package tick supplies the millisecond tick clock consumed by the classifier.
package tick

import (
	"time"

	"github.com/sweeney/button-handler/internal/logic"
)

// Clock returns the current tick value.
type Clock func() logic.Ticks

// FromDuration converts a monotonic timestamp to ticks.
func FromDuration(d time.Duration) logic.Ticks {
	return logic.DurationTicks(d)
}

// Manual is a clock advanced explicitly by tests.
type Manual struct {
	now logic.Ticks
}

// Now returns the current value.
func (m *Manual) Now() logic.Ticks { return m.now }

// Set moves the clock to t, wrapped to the tick period.
func (m *Manual) Set(t logic.Ticks) { m.now = logic.Add(t, 0) }

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) { m.now = logic.Add(m.now, logic.DurationTicks(d)) }

package logic

import "fmt"

// Default tuning values, in ticks.
const (
	DefaultMultiPressInterval Ticks = 175
	DefaultLongPressThreshold Ticks = 1000
	DefaultMaxMultiPress            = 2
)

// Config holds the tuning parameters of a single button.
type Config struct {
	// EnableMultiPress reports short presses immediately on release when false.
	EnableMultiPress bool
	// MultiPressInterval is the longest gap after a short release that still
	// counts toward the same multi-press run.
	MultiPressInterval Ticks
	// LongPressThreshold is the minimum held time of a long press or hold.
	LongPressThreshold Ticks
	// MaxMultiPress is the press count at which a run completes on release
	// without waiting for MultiPressInterval.
	MaxMultiPress int
}

// DefaultConfig returns the configuration used for buttons without an override.
func DefaultConfig() Config {
	return Config{
		EnableMultiPress:   true,
		MultiPressInterval: DefaultMultiPressInterval,
		LongPressThreshold: DefaultLongPressThreshold,
		MaxMultiPress:      DefaultMaxMultiPress,
	}
}

// Validate checks that c can drive a Button.
func (c Config) Validate() error {
	if c.MaxMultiPress < 1 {
		return fmt.Errorf("%w: max multi press must be at least 1, got %d", ErrConfig, c.MaxMultiPress)
	}
	if c.LongPressThreshold == 0 {
		return fmt.Errorf("%w: long press threshold must be positive", ErrConfig)
	}
	if c.LongPressThreshold >= MaxSpan {
		return fmt.Errorf("%w: long press threshold %d must be below %d ticks", ErrConfig, c.LongPressThreshold, MaxSpan)
	}
	if c.MultiPressInterval >= MaxSpan {
		return fmt.Errorf("%w: multi press interval %d must be below %d ticks", ErrConfig, c.MultiPressInterval, MaxSpan)
	}
	return nil
}

// Button tracks the classification state of one physical button.
type Button struct {
	id  int
	cfg Config

	isPressed      bool
	isHolding      bool
	pressCount     int
	pressStartTime Ticks
	// lastPressTime is only meaningful while hasLastPress is set.
	lastPressTime Ticks
	hasLastPress  bool
}

// NewButton creates the state for button id with the given configuration.
func NewButton(id int, cfg Config) (*Button, error) {
	if id < 0 {
		return nil, fmt.Errorf("%w: button id must be non-negative, got %d", ErrConfig, id)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("button %d: %w", id, err)
	}
	return &Button{id: id, cfg: cfg}, nil
}

// ID returns the button number.
func (b *Button) ID() int { return b.id }

// Config returns the button's tuning parameters.
func (b *Button) Config() Config { return b.cfg }

// IsPressed reports whether the button is currently down.
func (b *Button) IsPressed() bool { return b.isPressed }

// IsHolding reports whether a HOLD has been emitted for the current press.
func (b *Button) IsHolding() bool { return b.isHolding }

// PressCount returns the number of presses in the pending multi-press run.
func (b *Button) PressCount() int { return b.pressCount }

// LastPressTime returns the reference time of the pending multi-press run.
// ok is false when no run is pending.
func (b *Button) LastPressTime() (t Ticks, ok bool) {
	return b.lastPressTime, b.hasLastPress
}

// Status returns a copy of the button's state.
func (b *Button) Status() ButtonStatus {
	return ButtonStatus{
		ID:         b.id,
		Pressed:    b.isPressed,
		Holding:    b.isHolding,
		PressCount: b.pressCount,
	}
}

// checkHold emits HOLD once per press when the button has been down for
// at least the long press threshold.
func (b *Button) checkHold(now Ticks) (Event, bool) {
	if b.isHolding || !b.isPressed || Diff(now, b.pressStartTime) < b.cfg.LongPressThreshold {
		return Event{}, false
	}
	b.isHolding = true
	return Event{Action: Hold, Button: b.id, Timestamp: now}, true
}

// checkMultiPressTimeout resolves a pending multi-press run once no press has
// followed the last counted release within the multi-press interval.
func (b *Button) checkMultiPressTimeout(now Ticks) (Event, bool) {
	if b.pressCount == 0 || b.isPressed || Diff(now, b.lastPressTime) <= b.cfg.MultiPressInterval {
		return Event{}, false
	}
	e := Event{Action: multiPress(b.pressCount), Button: b.id, Timestamp: now}
	b.resetRun()
	return e, true
}

func (b *Button) press(ts Ticks) {
	b.isPressed = true
	b.pressStartTime = ts
	// Once the run is full the window stops moving; completion happens on release.
	if b.pressCount < b.cfg.MaxMultiPress {
		b.lastPressTime = ts
		b.hasLastPress = true
	}
	b.pressCount++
}

func (b *Button) release(ts Ticks) (Event, bool) {
	held := Diff(ts, b.pressStartTime)
	b.isPressed = false

	var action Action
	switch {
	case held >= b.cfg.LongPressThreshold:
		action = LongPress
		b.isHolding = false
	case !b.cfg.EnableMultiPress:
		action = ShortPress
	case b.pressCount == b.cfg.MaxMultiPress:
		action = multiPress(b.pressCount)
	default:
		// More short presses may follow. The interval runs from this release.
		if b.pressCount < b.cfg.MaxMultiPress {
			b.lastPressTime = ts
			b.hasLastPress = true
		}
		return Event{}, false
	}
	b.resetRun()
	return Event{Action: action, Button: b.id, Timestamp: ts}, true
}

func (b *Button) resetRun() {
	b.pressCount = 0
	b.lastPressTime = 0
	b.hasLastPress = false
}

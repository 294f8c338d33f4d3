// Package logic contains the pure button classification logic.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injected as a Ticks value.
package logic

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig reports an invalid handler or button configuration.
	ErrConfig = errors.New("invalid configuration")
	// ErrInvalidAction reports an action name that cannot be parsed.
	ErrInvalidAction = errors.New("invalid action")
	// ErrUnknownButton reports a raw event for a button the handler does not own.
	ErrUnknownButton = errors.New("unknown button")
)

// RawEvent is a debounced press or release transition reported by an input scanner.
type RawEvent struct {
	Button    int
	Pressed   bool
	Timestamp Ticks
}

// Queue is an ordered source of raw events filled by an input scanner.
type Queue interface {
	// Len returns the number of queued events.
	Len() int
	// Pop removes and returns the oldest event. ok is false if the queue is empty.
	Pop() (event RawEvent, ok bool)
}

// Event is a classified action on a single button.
// Two events are the same input when their Key is equal; Timestamp is informational.
type Event struct {
	Action    Action
	Button    int
	Timestamp Ticks
}

// EventKey is the identity of an Event.
type EventKey struct {
	Action Action
	Button int
}

// Key returns the identity of the event.
func (e Event) Key() EventKey {
	return EventKey{Action: e.Action, Button: e.Button}
}

// Equal reports whether both events describe the same action on the same button.
func (e Event) Equal(other Event) bool {
	return e.Key() == other.Key()
}

func (e Event) String() string {
	return fmt.Sprintf("%s on button %d", e.Action, e.Button)
}

// Counts tracks the number of each action kind classified since startup.
type Counts struct {
	ShortPress int
	LongPress  int
	Hold       int
	MultiPress int
}

func (c *Counts) add(a Action) {
	switch a.Kind() {
	case KindShortPress:
		c.ShortPress++
	case KindLongPress:
		c.LongPress++
	case KindHold:
		c.Hold++
	case KindMultiPress:
		c.MultiPress++
	}
}

// ButtonStatus is a read-only view of one button's classification state.
type ButtonStatus struct {
	ID         int
	Pressed    bool
	Holding    bool
	PressCount int
}

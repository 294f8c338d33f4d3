package logic

import (
	"fmt"
	"sort"
)

// Handler owns the state of every button and classifies raw events into actions.
// It is not safe for concurrent use; callers must serialize Poll and Update.
type Handler struct {
	buttons []Button
	counts  Counts
}

// NewHandler creates a handler for buttons 0..count-1.
// Buttons missing from configs use DefaultConfig.
func NewHandler(count int, configs map[int]Config) (*Handler, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: button count must be at least 1, got %d", ErrConfig, count)
	}
	for id := range configs {
		if id < 0 || id >= count {
			return nil, fmt.Errorf("%w: config for button %d outside 0..%d", ErrConfig, id, count-1)
		}
	}

	h := &Handler{buttons: make([]Button, 0, count)}
	for id := 0; id < count; id++ {
		cfg, ok := configs[id]
		if !ok {
			cfg = DefaultConfig()
		}
		b, err := NewButton(id, cfg)
		if err != nil {
			return nil, err
		}
		h.buttons = append(h.buttons, *b)
	}
	return h, nil
}

// Update drains q and classifies against now.
//
// The drain is bounded by the queue length observed on entry, so events
// pushed while draining are left for the next call.
func (h *Handler) Update(q Queue, now Ticks) (EventSet, error) {
	n := q.Len()
	events := make([]RawEvent, 0, n)
	for i := 0; i < n; i++ {
		e, ok := q.Pop()
		if !ok {
			break
		}
		events = append(events, e)
	}
	return h.Poll(now, events)
}

// Poll runs the time-based checks for every button against now and then
// applies events in order. It returns every action detected in this poll.
//
// An event for a button outside the handler's range aborts the poll with
// ErrUnknownButton before any button state or count changes.
func (h *Handler) Poll(now Ticks, events []RawEvent) (EventSet, error) {
	for _, raw := range events {
		if raw.Button < 0 || raw.Button >= len(h.buttons) {
			return nil, fmt.Errorf("%w: %d (have %d buttons)", ErrUnknownButton, raw.Button, len(h.buttons))
		}
	}

	set := make(EventSet)

	for i := range h.buttons {
		b := &h.buttons[i]
		if e, ok := b.checkHold(now); ok {
			h.emit(set, e)
		}
		if e, ok := b.checkMultiPressTimeout(now); ok {
			h.emit(set, e)
		}
	}

	for _, raw := range events {
		b := &h.buttons[raw.Button]
		if raw.Pressed {
			b.press(raw.Timestamp)
			continue
		}
		if e, ok := b.release(raw.Timestamp); ok {
			h.emit(set, e)
		}
	}

	return set, nil
}

func (h *Handler) emit(set EventSet, e Event) {
	if set.Add(e) {
		h.counts.add(e.Action)
	}
}

// Len returns the number of buttons.
func (h *Handler) Len() int {
	return len(h.buttons)
}

// Button returns the state of button id, or nil if id is out of range.
func (h *Handler) Button(id int) *Button {
	if id < 0 || id >= len(h.buttons) {
		return nil
	}
	return &h.buttons[id]
}

// Statuses returns a snapshot of every button's state, ordered by id.
func (h *Handler) Statuses() []ButtonStatus {
	out := make([]ButtonStatus, len(h.buttons))
	for i := range h.buttons {
		out[i] = h.buttons[i].Status()
	}
	return out
}

// Counts returns the number of actions classified since creation.
func (h *Handler) Counts() Counts {
	return h.counts
}

// EventSet is a set of classified events keyed by (action, button).
type EventSet map[EventKey]Event

// Add inserts e unless an equal event is already present. It reports whether e was added.
func (s EventSet) Add(e Event) bool {
	k := e.Key()
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = e
	return true
}

// Contains reports whether an event equal to e is in the set.
func (s EventSet) Contains(e Event) bool {
	_, ok := s[e.Key()]
	return ok
}

// Sorted returns the events ordered by button, then by action kind and count.
func (s EventSet) Sorted() []Event {
	out := make([]Event, 0, len(s))
	for _, e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Button != b.Button {
			return a.Button < b.Button
		}
		if a.Action.kind != b.Action.kind {
			return a.Action.kind < b.Action.kind
		}
		return a.Action.count < b.Action.count
	})
	return out
}

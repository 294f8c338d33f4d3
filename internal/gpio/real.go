//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/button-handler/internal/logic"
	"github.com/sweeney/button-handler/internal/tick"
)

// RealSource watches button lines on actual hardware.
type RealSource struct {
	chip    *gpiocdev.Chip
	lines   *gpiocdev.Lines
	sink    Sink
	buttons map[int]int // line offset -> button id
}

// NewRealSource requests opts.Pins as inputs with edge detection on both
// edges and starts pushing transitions into sink.
func NewRealSource(opts Options, sink Sink) (*RealSource, error) {
	if len(opts.Pins) == 0 {
		return nil, errors.New("gpio: no pins configured")
	}
	name := opts.Chip
	if name == "" {
		name = DefaultChip
	}

	s := &RealSource{
		sink:    sink,
		buttons: make(map[int]int, len(opts.Pins)),
	}
	for id, pin := range opts.Pins {
		if _, dup := s.buttons[pin]; dup {
			return nil, fmt.Errorf("gpio: pin %d assigned to more than one button", pin)
		}
		s.buttons[pin] = id
	}

	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	s.chip = chip

	reqOpts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(s.handle),
	}
	if opts.ActiveLow {
		reqOpts = append(reqOpts, gpiocdev.AsActiveLow, gpiocdev.WithPullUp)
	} else {
		reqOpts = append(reqOpts, gpiocdev.WithPullDown)
	}
	if opts.Debounce > 0 {
		reqOpts = append(reqOpts, gpiocdev.WithDebounce(opts.Debounce))
	}

	lines, err := chip.RequestLines(opts.Pins, reqOpts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pins %v: %w", opts.Pins, err)
	}
	s.lines = lines

	return s, nil
}

// handle runs on the gpiocdev watcher goroutine. Edges are reported in
// logical terms, so a rising edge is always a press.
func (s *RealSource) handle(evt gpiocdev.LineEvent) {
	id, ok := s.buttons[evt.Offset]
	if !ok {
		return
	}
	s.sink.Push(logic.RawEvent{
		Button:    id,
		Pressed:   evt.Type == gpiocdev.LineEventRisingEdge,
		Timestamp: tick.FromDuration(evt.Timestamp),
	})
}

// Close releases GPIO resources.
// Lines are reconfigured to plain inputs with pull-down (the Pi boot default)
// before closing.
func (s *RealSource) Close() error {
	var errs []error

	if s.lines != nil {
		if err := s.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pins: %w", err))
		}
		if err := s.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pins: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

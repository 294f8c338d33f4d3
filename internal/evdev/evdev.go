// Package evdev reads button transitions from a Linux input device
// (/dev/input/eventN), for keypads and GPIO buttons bound to gpio-keys.
package evdev

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/temoto/inputevent-go"

	"github.com/sweeney/button-handler/internal/logic"
	"github.com/sweeney/button-handler/internal/logx"
	"github.com/sweeney/button-handler/internal/tick"
)

// Sink receives raw events from the reader goroutine.
type Sink interface {
	Push(e logic.RawEvent) bool
}

// Reader delivers EV_KEY press and release events for the configured key
// codes. Autorepeat events are ignored; the classifier derives HOLD itself.
type Reader struct {
	rc      io.ReadCloser
	sink    Sink
	buttons map[uint16]int // key code -> button id
	log     logx.Logger

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// Open opens device, switches its event clock to CLOCK_MONOTONIC and starts
// reading. Button id i is keys[i].
func Open(device string, keys []uint16, sink Sink, log logx.Logger) (*Reader, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open input device: %w", err)
	}
	if err := useMonotonicClock(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("set clock on %s: %w", device, err)
	}
	r, err := newReader(f, keys, sink, log.With(logx.String("device", device)))
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func newReader(rc io.ReadCloser, keys []uint16, sink Sink, log logx.Logger) (*Reader, error) {
	if len(keys) == 0 {
		return nil, errors.New("evdev: no key codes configured")
	}
	buttons := make(map[uint16]int, len(keys))
	for id, code := range keys {
		if _, dup := buttons[code]; dup {
			return nil, fmt.Errorf("evdev: key code %d assigned to more than one button", code)
		}
		buttons[code] = id
	}

	r := &Reader{
		rc:      rc,
		sink:    sink,
		buttons: buttons,
		log:     log,
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go r.run()
	return r, nil
}

func (r *Reader) run() {
	defer close(r.done)
	for {
		ie, err := inputevent.ReadOne(r.rc)
		if err != nil {
			select {
			case <-r.closed:
			default:
				if !errors.Is(err, io.EOF) {
					r.log.Error("input device read failed", logx.Err(err))
				}
			}
			return
		}
		if e, ok := r.translate(ie); ok {
			if !r.sink.Push(e) {
				r.log.Debug("raw event dropped", logx.Int("button", e.Button))
			}
		}
	}
}

func (r *Reader) translate(ie inputevent.InputEvent) (logic.RawEvent, bool) {
	if ie.Type != inputevent.EV_KEY {
		return logic.RawEvent{}, false
	}
	id, ok := r.buttons[ie.Code]
	if !ok {
		return logic.RawEvent{}, false
	}

	var pressed bool
	switch inputevent.KeyEventState(ie.Value) {
	case inputevent.KeyStateDown:
		pressed = true
	case inputevent.KeyStateUp:
		pressed = false
	default:
		return logic.RawEvent{}, false
	}

	return logic.RawEvent{
		Button:    id,
		Pressed:   pressed,
		Timestamp: tick.FromDuration(time.Duration(ie.Time.Nano())),
	}, true
}

// Done is closed when the reader goroutine exits.
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// Close stops reading and closes the device.
func (r *Reader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.closed)
		err = r.rc.Close()
	})
	return err
}

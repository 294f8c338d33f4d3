package gpio

import "github.com/sweeney/button-handler/internal/logic"

// FakeSource is a test double that pushes scripted transitions.
type FakeSource struct {
	sink Sink

	// Dropped counts events the sink refused.
	Dropped int

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeSource creates a FakeSource feeding sink.
func NewFakeSource(sink Sink) *FakeSource {
	return &FakeSource{sink: sink}
}

// Press reports button going down at ts.
func (f *FakeSource) Press(button int, ts logic.Ticks) {
	f.push(logic.RawEvent{Button: button, Pressed: true, Timestamp: ts})
}

// Release reports button going up at ts.
func (f *FakeSource) Release(button int, ts logic.Ticks) {
	f.push(logic.RawEvent{Button: button, Pressed: false, Timestamp: ts})
}

// Tap presses button at ts and releases it held ticks later.
func (f *FakeSource) Tap(button int, ts, held logic.Ticks) {
	f.Press(button, ts)
	f.Release(button, logic.Add(ts, held))
}

func (f *FakeSource) push(e logic.RawEvent) {
	if f.Closed {
		return
	}
	if !f.sink.Push(e) {
		f.Dropped++
	}
}

// Close stops delivery.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

var _ Source = (*FakeSource)(nil)

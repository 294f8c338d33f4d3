package gpio

import (
	"testing"

	"github.com/sweeney/button-handler/internal/logic"
)

type sliceSink struct {
	events []logic.RawEvent
	limit  int
}

func (s *sliceSink) Push(e logic.RawEvent) bool {
	if s.limit > 0 && len(s.events) >= s.limit {
		return false
	}
	s.events = append(s.events, e)
	return true
}

func TestFakeSourceTap(t *testing.T) {
	sink := &sliceSink{}
	f := NewFakeSource(sink)

	f.Tap(2, 100, 50)

	if len(sink.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(sink.events))
	}
	want := []logic.RawEvent{
		{Button: 2, Pressed: true, Timestamp: 100},
		{Button: 2, Pressed: false, Timestamp: 150},
	}
	for i := range want {
		if sink.events[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, sink.events[i], want[i])
		}
	}
}

func TestFakeSourceTapWraps(t *testing.T) {
	sink := &sliceSink{}
	f := NewFakeSource(sink)
	f.Tap(0, logic.TickPeriod-10, 30)
	if got := sink.events[1].Timestamp; got != 20 {
		t.Errorf("release timestamp: got %d, want 20", got)
	}
}

func TestFakeSourceDropped(t *testing.T) {
	sink := &sliceSink{limit: 1}
	f := NewFakeSource(sink)
	f.Press(0, 1)
	f.Release(0, 2)
	if f.Dropped != 1 {
		t.Errorf("Dropped: got %d, want 1", f.Dropped)
	}
}

func TestFakeSourceClose(t *testing.T) {
	sink := &sliceSink{}
	f := NewFakeSource(sink)
	if err := f.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("expected Closed to be true")
	}
	f.Press(0, 1)
	if len(sink.events) != 0 {
		t.Error("closed source should not push")
	}
}

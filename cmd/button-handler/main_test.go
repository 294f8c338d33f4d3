package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/button-handler/internal/config"
	"github.com/sweeney/button-handler/internal/eventq"
	"github.com/sweeney/button-handler/internal/logic"
	"github.com/sweeney/button-handler/internal/logx"
	"github.com/sweeney/button-handler/internal/metrics"
	"github.com/sweeney/button-handler/internal/mqtt"
	"github.com/sweeney/button-handler/internal/status"
	"github.com/sweeney/button-handler/internal/tick"
)

// --- flag parsing ---

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("button-handler", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseFlagsDefaults(t *testing.T) {
	o, err := parseFlags(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.source != "gpio" {
		t.Errorf("source: got %q", o.source)
	}
	if len(o.pins) != 1 || o.pins[0] != 17 {
		t.Errorf("pins: got %v", o.pins)
	}
	if o.base != logic.DefaultConfig() {
		t.Errorf("base config: got %+v, want %+v", o.base, logic.DefaultConfig())
	}
	if o.poll != 5*time.Millisecond {
		t.Errorf("poll: got %v", o.poll)
	}
	if o.buttonCount() != 1 {
		t.Errorf("buttonCount: got %d", o.buttonCount())
	}
}

func TestParseFlagsEvdev(t *testing.T) {
	o, err := parseFlags(newFlagSet(), []string{
		"-source", "evdev", "-keys", "2, 3,4",
		"-multi-press=false", "-long-press", "2s", "-max-multi-press", "3",
		"-multi-press-interval", "250ms",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uint16{2, 3, 4}
	if len(o.keys) != len(want) {
		t.Fatalf("keys: got %v", o.keys)
	}
	for i := range want {
		if o.keys[i] != want[i] {
			t.Errorf("keys[%d]: got %d, want %d", i, o.keys[i], want[i])
		}
	}
	if o.buttonCount() != 3 {
		t.Errorf("buttonCount: got %d", o.buttonCount())
	}
	wantCfg := logic.Config{
		EnableMultiPress:   false,
		MultiPressInterval: 250,
		LongPressThreshold: 2000,
		MaxMultiPress:      3,
	}
	if o.base != wantCfg {
		t.Errorf("base config: got %+v, want %+v", o.base, wantCfg)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"unknown source", []string{"-source", "serial"}, nil},
		{"bad pins", []string{"-pins", "17,x"}, nil},
		{"empty pins", []string{"-pins", " , "}, nil},
		{"key out of range", []string{"-source", "evdev", "-keys", "70000"}, nil},
		{"zero max", []string{"-max-multi-press", "0"}, logic.ErrConfig},
		{"negative interval", []string{"-multi-press-interval", "-1ms"}, logic.ErrConfig},
		{"zero poll", []string{"-poll", "0"}, logic.ErrConfig},
		{"long press beyond tick range", []string{"-long-press", "150h"}, logic.ErrConfig},
		{"interval beyond tick range", []string{"-multi-press-interval", "100h"}, logic.ErrConfig},
		{"sub-tick long press", []string{"-long-press", "500us"}, logic.ErrConfig},
		{"zero long press", []string{"-long-press", "0"}, logic.ErrConfig},
		{"bad log level", []string{"-log-level", "loud"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(newFlagSet(), tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseIntList(t *testing.T) {
	got, err := parseIntList("17, 27,,22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{17, 27, 22}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: got %d, want %d", i, got[i], want[i])
		}
	}
	if _, err := parseIntList("-3"); err == nil {
		t.Error("expected error for negative number")
	}
}

func TestButtonConfigs(t *testing.T) {
	base := logic.Config{EnableMultiPress: false, MultiPressInterval: 100, LongPressThreshold: 500, MaxMultiPress: 3}
	override := logic.DefaultConfig()

	got := buttonConfigs(3, base, map[int]logic.Config{1: override})
	if len(got) != 3 {
		t.Fatalf("expected 3 configs, got %d", len(got))
	}
	if got[0] != base || got[2] != base {
		t.Errorf("buttons without overrides should use the base config, got %+v / %+v", got[0], got[2])
	}
	if got[1] != override {
		t.Errorf("button 1: got %+v, want %+v", got[1], override)
	}

	// Out-of-range overrides are kept so NewHandler can reject them.
	got = buttonConfigs(1, base, map[int]logic.Config{4: override})
	if _, err := logic.NewHandler(1, got); !errors.Is(err, logic.ErrConfig) {
		t.Errorf("expected ErrConfig, got %v", err)
	}
}

// --- bindings ---

func TestBuildBindings(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	entries := []config.Binding{
		{Button: 1, Action: logic.DoublePress, Topic: "home/scene", Payload: "movie", Retained: true},
	}
	b := buildBindings(entries, pub, logx.Nop())

	n := b.Dispatch([]logic.Event{
		{Action: logic.DoublePress, Button: 1},
		{Action: logic.DoublePress, Button: 0},
	})
	if n != 1 {
		t.Errorf("Dispatch: got %d, want 1", n)
	}
	if len(pub.Raw) != 1 {
		t.Fatalf("expected 1 raw message, got %d", len(pub.Raw))
	}
	if pub.Raw[0].Topic != "home/scene" || string(pub.Raw[0].Payload) != "movie" || !pub.Raw[0].Retained {
		t.Errorf("unexpected raw message: %+v", pub.Raw[0])
	}
}

func TestCheckButtonRange(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		ok   bool
	}{
		{"empty", config.Config{}, true},
		{"override in range", config.Config{Buttons: map[int]logic.Config{1: logic.DefaultConfig()}}, true},
		{"override out of range", config.Config{Buttons: map[int]logic.Config{2: logic.DefaultConfig()}}, false},
		{"binding in range", config.Config{Bindings: []config.Binding{{Button: 1, Action: logic.Hold, Topic: "t"}}}, true},
		{"binding out of range", config.Config{Bindings: []config.Binding{{Button: 2, Action: logic.Hold, Topic: "t"}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkButtonRange(&tt.cfg, 2)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, logic.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
		})
	}
}

// --- runLoop tests ---

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// frame is one poll: the tick value it runs at and the raw events that
// arrive just before it.
type frame struct {
	now    logic.Ticks
	events []logic.RawEvent
}

// scriptedClock returns a tick clock that, on its nth call, pushes the
// events of frames[n] into q and returns frames[n].now. runLoop reads the
// clock right before draining the queue, so each frame's events are
// classified at that frame's time.
func scriptedClock(q *eventq.Queue, frames []frame) tick.Clock {
	n := 0
	return func() logic.Ticks {
		f := frames[len(frames)-1]
		if n < len(frames) {
			f = frames[n]
		}
		n++
		for _, e := range f.events {
			q.Push(e)
		}
		return f.now
	}
}

func press(button int, ts logic.Ticks) logic.RawEvent {
	return logic.RawEvent{Button: button, Pressed: true, Timestamp: ts}
}

func release(button int, ts logic.Ticks) logic.RawEvent {
	return logic.RawEvent{Button: button, Pressed: false, Timestamp: ts}
}

type fixture struct {
	loop    loop
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
}

func newFixture(t *testing.T, buttons int, configs map[int]logic.Config, queueSize int, frames []frame) *fixture {
	t.Helper()
	h, err := logic.NewHandler(buttons, configs)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	q := eventq.New(queueSize)
	pub := mqtt.NewFakePublisher()
	tracker := status.NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), status.Config{Buttons: buttons})
	return &fixture{
		loop: loop{
			handler:    h,
			queue:      q,
			bindings:   logic.NewBindings(),
			publisher:  pub,
			mqttStatus: pub,
			tracker:    tracker,
			metrics:    metrics.New(false),
			log:        logx.Nop(),
			clock:      scriptedClock(q, frames),
			now:        fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 100*time.Millisecond),
		},
		pub:     pub,
		tracker: tracker,
	}
}

// runRunLoop drives runLoop for nTicks and then delivers signal, returning
// runLoop's error. If runLoop exits early its error is returned immediately.
func runRunLoop(t *testing.T, l loop, nTicks int, signal os.Signal) error {
	t.Helper()
	ticks := make(chan time.Time)
	sig := make(chan os.Signal, 1)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(l, ticks, sig)
	}()

	for i := 0; i < nTicks; i++ {
		select {
		case ticks <- time.Time{}:
		case err := <-errCh:
			return err
		}
	}
	sig <- signal

	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not return")
		return nil
	}
}

func singleConfig(multi bool) map[int]logic.Config {
	return map[int]logic.Config{0: {
		EnableMultiPress:   multi,
		MultiPressInterval: 200,
		LongPressThreshold: 1000,
		MaxMultiPress:      2,
	}}
}

func TestRunLoopShortPress(t *testing.T) {
	frames := []frame{{now: 150, events: []logic.RawEvent{press(0, 0), release(0, 150)}}}
	f := newFixture(t, 1, singleConfig(false), 8, frames)

	if err := runRunLoop(t, f.loop, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(f.pub.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.pub.Events))
	}
	want := logic.Event{Action: logic.ShortPress, Button: 0, Timestamp: 150}
	if f.pub.Events[0] != want {
		t.Errorf("got %+v, want %+v", f.pub.Events[0], want)
	}

	var parsed mqtt.Payload
	if err := json.Unmarshal(f.pub.Payloads[0], &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Button.Action != "SHORT_PRESS" || parsed.Button.Ticks != 150 {
		t.Errorf("unexpected payload: %+v", parsed.Button)
	}

	if len(f.pub.SystemEvents) != 1 || f.pub.SystemEvents[0].Event != "SHUTDOWN" {
		t.Fatalf("expected only SHUTDOWN, got %+v", f.pub.SystemEvents)
	}
}

func TestRunLoopDoublePress(t *testing.T) {
	frames := []frame{
		{now: 150, events: []logic.RawEvent{press(0, 0), release(0, 150)}},
		{now: 300, events: []logic.RawEvent{press(0, 300)}},
		{now: 400, events: []logic.RawEvent{release(0, 400)}},
		{now: 2000},
	}
	f := newFixture(t, 1, singleConfig(true), 8, frames)

	if err := runRunLoop(t, f.loop, len(frames), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(f.pub.Events) != 1 {
		t.Fatalf("expected 1 event, got %+v", f.pub.Events)
	}
	if f.pub.Events[0].Action != logic.DoublePress || f.pub.Events[0].Timestamp != 400 {
		t.Errorf("got %+v, want 2_MULTI_PRESS at 400", f.pub.Events[0])
	}
}

func TestRunLoopMultiPressTimeout(t *testing.T) {
	frames := []frame{
		{now: 150, events: []logic.RawEvent{press(0, 0), release(0, 150)}},
		{now: 349},
		{now: 351},
	}
	f := newFixture(t, 1, singleConfig(true), 8, frames)

	if err := runRunLoop(t, f.loop, len(frames), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(f.pub.Events) != 1 {
		t.Fatalf("expected 1 event, got %+v", f.pub.Events)
	}
	want := logic.Event{Action: logic.ShortPress, Button: 0, Timestamp: 351}
	if f.pub.Events[0] != want {
		t.Errorf("got %+v, want %+v", f.pub.Events[0], want)
	}
}

func TestRunLoopHoldThenLongPress(t *testing.T) {
	frames := []frame{
		{now: 0, events: []logic.RawEvent{press(0, 0)}},
		{now: 999},
		{now: 1000},
		{now: 1200},
		{now: 1500, events: []logic.RawEvent{release(0, 1500)}},
	}
	f := newFixture(t, 1, singleConfig(true), 8, frames)

	if err := runRunLoop(t, f.loop, len(frames), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	want := []logic.Event{
		{Action: logic.Hold, Button: 0, Timestamp: 1000},
		{Action: logic.LongPress, Button: 0, Timestamp: 1500},
	}
	if len(f.pub.Events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), f.pub.Events)
	}
	for i := range want {
		if f.pub.Events[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, f.pub.Events[i], want[i])
		}
	}
	if c := f.tracker.Snapshot().Counts; c.Hold != 1 || c.LongPress != 1 {
		t.Errorf("tracker counts: got %+v", c)
	}
}

func TestRunLoopPublishesInButtonOrder(t *testing.T) {
	frames := []frame{{now: 100, events: []logic.RawEvent{
		press(2, 0), press(0, 10), release(2, 50), release(0, 100),
	}}}
	cfg := logic.Config{EnableMultiPress: false, MultiPressInterval: 200, LongPressThreshold: 1000, MaxMultiPress: 2}
	f := newFixture(t, 3, map[int]logic.Config{0: cfg, 2: cfg}, 8, frames)

	if err := runRunLoop(t, f.loop, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(f.pub.Events) != 2 {
		t.Fatalf("expected 2 events, got %+v", f.pub.Events)
	}
	if f.pub.Events[0].Button != 0 || f.pub.Events[1].Button != 2 {
		t.Errorf("expected button order 0, 2; got %d, %d", f.pub.Events[0].Button, f.pub.Events[1].Button)
	}
}

func TestRunLoopDispatchesBindings(t *testing.T) {
	frames := []frame{
		{now: 250, events: []logic.RawEvent{press(0, 0), release(0, 150), press(0, 200), release(0, 250)}},
	}
	f := newFixture(t, 1, singleConfig(true), 8, frames)
	f.loop.bindings = buildBindings([]config.Binding{
		{Button: 0, Action: logic.DoublePress, Topic: "home/lights/toggle", Payload: "TOGGLE"},
	}, f.pub, logx.Nop())

	if err := runRunLoop(t, f.loop, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if len(f.pub.Raw) != 1 || f.pub.Raw[0].Topic != "home/lights/toggle" {
		t.Errorf("expected binding publish, got %+v", f.pub.Raw)
	}
}

func TestRunLoopUnknownButtonIsFatal(t *testing.T) {
	frames := []frame{{now: 10, events: []logic.RawEvent{press(5, 0)}}}
	f := newFixture(t, 2, nil, 8, frames)

	err := runRunLoop(t, f.loop, 3, syscall.SIGTERM)
	if !errors.Is(err, logic.ErrUnknownButton) {
		t.Fatalf("expected ErrUnknownButton, got %v", err)
	}
	if len(f.pub.SystemEvents) != 0 {
		t.Errorf("no SHUTDOWN is published on a fatal error, got %+v", f.pub.SystemEvents)
	}
}

func TestRunLoopPublishError(t *testing.T) {
	frames := []frame{
		{now: 150, events: []logic.RawEvent{press(0, 0), release(0, 150)}},
		{now: 400, events: []logic.RawEvent{press(0, 300), release(0, 400)}},
	}
	f := newFixture(t, 1, singleConfig(false), 8, frames)
	f.pub.PublishError = errors.New("broker unavailable")

	if err := runRunLoop(t, f.loop, len(frames), syscall.SIGTERM); err != nil {
		t.Fatalf("publish errors must not stop the loop: %v", err)
	}
	if got := f.tracker.Snapshot().Counts.ShortPress; got != 2 {
		t.Errorf("both presses should still be classified, got %d", got)
	}
	if len(f.pub.SystemEvents) != 1 {
		t.Errorf("expected SHUTDOWN after publish errors, got %d system events", len(f.pub.SystemEvents))
	}
}

func TestRunLoopQueueOverflow(t *testing.T) {
	frames := []frame{
		{now: 100, events: []logic.RawEvent{press(0, 0), release(0, 50), press(0, 60), release(0, 100)}},
		{now: 200},
	}
	f := newFixture(t, 1, singleConfig(false), 2, frames)

	if err := runRunLoop(t, f.loop, len(frames), syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	if got := f.tracker.Snapshot().QueueOverflows; got != 1 {
		t.Errorf("QueueOverflows: got %d, want 1", got)
	}
	if f.loop.queue.Overflowed() {
		t.Error("overflow flag should be cleared after reporting")
	}
	if len(f.pub.Events) != 1 {
		t.Errorf("only the first press fits in the queue, got %+v", f.pub.Events)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	// now() calls: start, then one per tick at 5-minute steps. With a
	// 15-minute interval the heartbeat fires on the third tick only.
	frames := []frame{{now: 0}}
	f := newFixture(t, 1, nil, 8, frames)
	f.loop.heartbeat = 15 * time.Minute
	f.loop.now = fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 5*time.Minute)

	if err := runRunLoop(t, f.loop, 4, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var heartbeats, shutdowns int
	for _, se := range f.pub.SystemEvents {
		switch se.Event {
		case "HEARTBEAT":
			heartbeats++
			var parsed status.StatusJSON
			if err := json.Unmarshal(se.RawPayload, &parsed); err != nil {
				t.Fatalf("invalid heartbeat JSON: %v", err)
			}
			if parsed.Status.Event != "HEARTBEAT" {
				t.Errorf("heartbeat payload event: got %q", parsed.Status.Event)
			}
			if len(parsed.Status.Buttons) != 1 {
				t.Errorf("heartbeat should carry button state, got %+v", parsed.Status.Buttons)
			}
		case "SHUTDOWN":
			shutdowns++
		}
	}
	if heartbeats != 1 {
		t.Errorf("expected 1 HEARTBEAT event, got %d", heartbeats)
	}
	if shutdowns != 1 {
		t.Errorf("expected 1 SHUTDOWN event, got %d", shutdowns)
	}
}

func TestRunLoopHeartbeatDisabled(t *testing.T) {
	f := newFixture(t, 1, nil, 8, []frame{{now: 0}})
	f.loop.now = fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour)

	if err := runRunLoop(t, f.loop, 5, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	for _, se := range f.pub.SystemEvents {
		if se.Event == "HEARTBEAT" {
			t.Fatal("heartbeat should be disabled when interval is 0")
		}
	}
}

func TestRunLoopShutdownSignals(t *testing.T) {
	for _, tt := range []struct {
		sig  os.Signal
		want string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
		{syscall.SIGHUP, "UNKNOWN"},
	} {
		t.Run(tt.want, func(t *testing.T) {
			f := newFixture(t, 1, nil, 8, []frame{{now: 0}})
			f.pub.Connected = true

			if err := runRunLoop(t, f.loop, 0, tt.sig); err != nil {
				t.Fatalf("runLoop returned error: %v", err)
			}
			if len(f.pub.SystemEvents) != 1 {
				t.Fatalf("expected 1 system event, got %d", len(f.pub.SystemEvents))
			}
			se := f.pub.SystemEvents[0]
			if se.Event != "SHUTDOWN" || se.Reason != tt.want || !se.Retained {
				t.Errorf("unexpected shutdown event: %+v", se)
			}
			var parsed status.StatusJSON
			if err := json.Unmarshal(se.RawPayload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Status.Reason != tt.want {
				t.Errorf("payload reason: got %q, want %q", parsed.Status.Reason, tt.want)
			}
			if !parsed.Status.MQTT.Connected {
				t.Error("shutdown snapshot should reflect the MQTT connection")
			}
		})
	}
}

func TestRunLoopSourceLost(t *testing.T) {
	f := newFixture(t, 1, nil, 8, []frame{{now: 0}})
	done := make(chan struct{})
	f.loop.sourceDone = done
	close(done)

	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(f.loop, make(chan time.Time), make(chan os.Signal))
	}()

	var err error
	select {
	case err = <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not return after the source stopped")
	}
	if !errors.Is(err, ErrSourceLost) {
		t.Fatalf("expected ErrSourceLost, got %v", err)
	}
	if len(f.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(f.pub.SystemEvents))
	}
	se := f.pub.SystemEvents[0]
	if se.Event != "SHUTDOWN" || se.Reason != "SOURCE_LOST" || !se.Retained {
		t.Errorf("unexpected shutdown event: %+v", se)
	}
}

func TestRunLoopSourceLostAfterTicks(t *testing.T) {
	frames := []frame{{now: 150, events: []logic.RawEvent{press(0, 0), release(0, 150)}}}
	f := newFixture(t, 1, singleConfig(false), 8, frames)
	done := make(chan struct{})
	f.loop.sourceDone = done

	ticks := make(chan time.Time)
	errCh := make(chan error, 1)
	go func() {
		errCh <- runLoop(f.loop, ticks, make(chan os.Signal))
	}()

	ticks <- time.Time{}
	close(done)

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrSourceLost) {
			t.Fatalf("expected ErrSourceLost, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runLoop did not return after the source stopped")
	}
	if len(f.pub.Events) != 1 || f.pub.Events[0].Action != logic.ShortPress {
		t.Errorf("events before the loss should be published, got %+v", f.pub.Events)
	}
}

func TestRunLoopUpdatesTracker(t *testing.T) {
	frames := []frame{{now: 10, events: []logic.RawEvent{press(1, 5)}}}
	f := newFixture(t, 2, nil, 8, frames)

	if err := runRunLoop(t, f.loop, 1, syscall.SIGTERM); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	snap := f.tracker.Snapshot()
	if len(snap.Buttons) != 2 {
		t.Fatalf("expected 2 buttons, got %+v", snap.Buttons)
	}
	if !snap.Buttons[1].Pressed || snap.Buttons[1].PressCount != 1 {
		t.Errorf("button 1: got %+v", snap.Buttons[1])
	}
}

func TestCountingSink(t *testing.T) {
	q := eventq.New(1)
	s := countingSink{queue: q, metrics: metrics.New(false)}
	if !s.Push(press(0, 1)) {
		t.Error("first push should succeed")
	}
	if s.Push(press(0, 2)) {
		t.Error("second push should be dropped by the full queue")
	}
	if q.Len() != 1 {
		t.Errorf("queue length: got %d, want 1", q.Len())
	}
}

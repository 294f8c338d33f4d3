// Package status provides a thread-safe status tracker for the button-handler daemon.
// It is read by the HTTP handlers and the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/button-handler/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Source      string // "gpio" or "evdev"
	Buttons     int
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	TopicPrefix string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// Snapshot returns it by value with its own Buttons slice.
type Snapshot struct {
	Buttons        []logic.ButtonStatus
	Counts         logic.Counts
	QueueOverflows int
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the button states and action counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(buttons []logic.ButtonStatus, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Buttons = append(t.snap.Buttons[:0], buttons...)
	t.snap.Counts = counts
	t.mu.Unlock()
}

// AddQueueOverflow records one overflow of the raw event queue.
func (t *Tracker) AddQueueOverflow() {
	t.mu.Lock()
	t.snap.QueueOverflows++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Buttons = append([]logic.ButtonStatus(nil), t.snap.Buttons...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

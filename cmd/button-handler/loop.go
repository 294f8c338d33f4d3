package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/sweeney/button-handler/internal/eventq"
	"github.com/sweeney/button-handler/internal/logic"
	"github.com/sweeney/button-handler/internal/logx"
	"github.com/sweeney/button-handler/internal/metrics"
	"github.com/sweeney/button-handler/internal/mqtt"
	"github.com/sweeney/button-handler/internal/status"
	"github.com/sweeney/button-handler/internal/tick"
)

// ErrSourceLost is returned by runLoop when the input source stops delivering events.
var ErrSourceLost = errors.New("input source stopped")

// loop holds everything runLoop touches. tracker, metrics and mqttStatus may be nil.
type loop struct {
	handler    *logic.Handler
	queue      *eventq.Queue
	bindings   *logic.Bindings
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	metrics    *metrics.Metrics
	log        logx.Logger
	heartbeat  time.Duration
	clock      tick.Clock
	now        func() time.Time
	// sourceDone is closed when the input source dies. nil for sources that cannot.
	sourceDone <-chan struct{}
}

// runLoop classifies on every tick until a signal arrives or the source is
// lost. It returns an error when classification fails or the source is lost.
func runLoop(l loop, ticks <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := l.now()

	for {
		select {
		case s := <-sig:
			l.log.Info("shutting down", logx.Stringer("signal", s))
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			l.publishShutdown(signalName)
			return nil

		case <-l.sourceDone:
			l.log.Error("input source stopped, shutting down")
			l.publishShutdown("SOURCE_LOST")
			return ErrSourceLost

		case <-ticks:
			if err := l.step(); err != nil {
				return err
			}

			t := l.now()
			if l.heartbeat > 0 && t.Sub(lastHeartbeat) >= l.heartbeat {
				lastHeartbeat = t
				l.sendHeartbeat(t)
			}
		}
	}
}

func (l loop) publishShutdown(reason string) {
	event := mqtt.SystemEvent{
		Timestamp: l.now(),
		Event:     "SHUTDOWN",
		Reason:    reason,
		Retained:  true,
	}
	if l.tracker != nil {
		l.refreshStatus()
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "SHUTDOWN", reason)
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		l.log.Warn("failed to publish shutdown event", logx.Err(err))
	} else {
		l.log.Info("published shutdown event", logx.String("reason", reason))
	}
}

// step runs one classification poll and dispatches its actions.
func (l loop) step() error {
	started := time.Now()
	set, err := l.handler.Update(l.queue, l.clock())
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	if l.metrics != nil {
		l.metrics.ObservePoll(time.Since(started))
	}

	if l.queue.Overflowed() {
		l.log.Warn("raw event queue overflowed, input dropped")
		l.queue.ClearOverflow()
		if l.metrics != nil {
			l.metrics.QueueOverflow()
		}
		if l.tracker != nil {
			l.tracker.AddQueueOverflow()
		}
	}

	events := set.Sorted()
	for _, e := range events {
		l.log.Info("action",
			logx.Int("button", e.Button),
			logx.Stringer("action", e.Action),
			logx.Uint64("ticks", uint64(e.Timestamp)))
		if l.metrics != nil {
			l.metrics.Action(e)
		}
		if err := l.publisher.Publish(e); err != nil {
			// Don't crash on publish failure
			l.log.Warn("publish error", logx.Stringer("event", e), logx.Err(err))
			if l.metrics != nil {
				l.metrics.PublishFailure()
			}
		}
	}
	if l.bindings != nil {
		l.bindings.Dispatch(events)
	}

	if l.tracker != nil {
		l.refreshStatus()
	}
	return nil
}

func (l loop) refreshStatus() {
	l.tracker.Update(l.handler.Statuses(), l.handler.Counts())
	if l.mqttStatus != nil {
		l.tracker.SetMQTTConnected(l.mqttStatus.IsConnected())
	}
}

func (l loop) sendHeartbeat(t time.Time) {
	counts := l.handler.Counts()
	l.log.Info("heartbeat",
		logx.Int("short_press", counts.ShortPress),
		logx.Int("long_press", counts.LongPress),
		logx.Int("hold", counts.Hold),
		logx.Int("multi_press", counts.MultiPress))

	event := mqtt.SystemEvent{
		Timestamp: t,
		Event:     "HEARTBEAT",
	}
	if l.tracker != nil {
		l.refreshStatus()
		event.RawPayload = status.FormatStatusEvent(l.tracker.Snapshot(), "HEARTBEAT", "")
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		l.log.Warn("heartbeat publish error", logx.Err(err))
	}
}

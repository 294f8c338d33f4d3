package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/button-handler/internal/logic"
	"github.com/sweeney/button-handler/internal/logx"
)

// ErrNotConnected is returned when a message is buffered instead of sent.
var ErrNotConnected = errors.New("mqtt: not connected")

// Options configure a RealPublisher.
type Options struct {
	Broker   string
	ClientID string
	Topics   Topics
	// BufferSize is the number of messages kept while disconnected.
	BufferSize int
	// ConnectTimeout bounds the initial connection attempts.
	ConnectTimeout time.Duration
	Log            logx.Logger
}

// RealPublisher publishes to an actual MQTT broker.
// Messages published while the connection is down are buffered and replayed
// on reconnect.
type RealPublisher struct {
	client paho.Client
	topics Topics
	log    logx.Logger
	now    func() time.Time
	outbox *outbox

	// Seams over the client, replaced in tests.
	connected func() bool
	send      func(msg bufferedMsg) error

	mu          sync.Mutex // guards onReconnect and connectedOnce
	onReconnect func()
	// connectedOnce is set by the first OnConnect callback; later ones are reconnects.
	connectedOnce bool
}

// NewRealPublisher creates a publisher connected to the given broker.
// The initial connection is retried with exponential backoff until
// opts.ConnectTimeout elapses.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	if opts.ClientID == "" {
		opts.ClientID = "button-handler"
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}

	p := &RealPublisher{
		topics: opts.Topics,
		log:    opts.Log.With(logx.String("broker", opts.Broker)),
		now:    time.Now,
		outbox: newOutbox(opts.BufferSize, opts.Log),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	mopts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Minute).
		SetBinaryWill(opts.Topics.System, will, 1, true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn("mqtt connection lost", logx.Err(err))
		}).
		SetOnConnectHandler(func(_ paho.Client) {
			p.handleConnect()
		})

	p.client = paho.NewClient(mopts)
	p.connected = p.client.IsConnectionOpen
	p.send = p.sendNow

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = opts.ConnectTimeout
	err = backoff.Retry(func() error {
		token := p.client.Connect()
		if !token.WaitTimeout(10 * time.Second) {
			return errors.New("connection timeout")
		}
		if err := token.Error(); err != nil {
			p.log.Warn("mqtt connect failed", logx.Err(err))
			return err
		}
		return nil
	}, bo)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// OnReconnect registers fn to run after the buffer is replayed on every reconnect.
// Reconnects that happen before registration do not call fn.
func (p *RealPublisher) OnReconnect(fn func()) {
	p.mu.Lock()
	p.onReconnect = fn
	p.mu.Unlock()
}

// handleConnect runs on paho's goroutine for every successful connect.
func (p *RealPublisher) handleConnect() {
	p.mu.Lock()
	first := !p.connectedOnce
	p.connectedOnce = true
	hook := p.onReconnect
	p.mu.Unlock()
	if first {
		return
	}

	p.log.Info("mqtt reconnected", logx.Int("buffered", p.outbox.len()))
	p.flush()
	if hook != nil {
		hook()
	}
}

// Publish sends a button action to the broker. QoS 0, not retained.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event, p.now())
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: p.topics.Events, payload: payload})
}

// PublishSystem sends a system lifecycle event to the broker.
// QoS 1 (at-least-once): lifecycle events should not be lost.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(bufferedMsg{topic: p.topics.System, payload: payload, qos: 1, retained: event.Retained})
}

// PublishRaw sends payload to topic with QoS 0.
func (p *RealPublisher) PublishRaw(topic string, payload []byte, retained bool) error {
	return p.publish(bufferedMsg{topic: topic, payload: payload, retained: retained})
}

func (p *RealPublisher) publish(msg bufferedMsg) error {
	if !p.connected() {
		p.outbox.push(msg)
		return ErrNotConnected
	}
	if err := p.send(msg); err != nil {
		p.outbox.push(msg)
		return err
	}
	return nil
}

func (p *RealPublisher) sendNow(msg bufferedMsg) error {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.topic, err)
	}
	return nil
}

// flush replays buffered messages in order. Messages that fail go back into
// the buffer for the next reconnect.
func (p *RealPublisher) flush() {
	for _, msg := range p.outbox.drainAll() {
		if err := p.send(msg); err != nil {
			p.log.Warn("mqtt replay failed", logx.String("topic", msg.topic), logx.Err(err))
			p.outbox.push(msg)
		}
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.connected()
}

// Buffered returns the number of messages waiting for a reconnect.
func (p *RealPublisher) Buffered() int {
	return p.outbox.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	if p.client != nil {
		p.client.Disconnect(1000) // 1 second timeout
	}
	return nil
}

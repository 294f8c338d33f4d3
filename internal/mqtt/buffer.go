package mqtt

import (
	"sync"

	"github.com/sweeney/button-handler/internal/logx"
	"github.com/sweeney/button-handler/internal/ring"
)

// DefaultBufferSize is the number of messages held while disconnected.
const DefaultBufferSize = 256

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// outbox stores messages while disconnected, dropping the oldest when full.
type outbox struct {
	mu  sync.Mutex
	buf *ring.Buffer[bufferedMsg]
	log logx.Logger
}

func newOutbox(capacity int, log logx.Logger) *outbox {
	if capacity < 1 {
		capacity = DefaultBufferSize
	}
	return &outbox{
		buf: ring.New[bufferedMsg](capacity, ring.DropOldest),
		log: log,
	}
}

func (o *outbox) push(msg bufferedMsg) {
	o.mu.Lock()
	defer o.mu.Unlock()
	wasFull := o.buf.Overflowed()
	o.buf.Push(msg)
	if !wasFull && o.buf.Overflowed() {
		o.log.Warn("mqtt buffer full, dropping oldest", logx.Int("capacity", o.buf.Cap()))
	}
}

func (o *outbox) drainAll() []bufferedMsg {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.DrainAll()
}

func (o *outbox) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.Len()
}

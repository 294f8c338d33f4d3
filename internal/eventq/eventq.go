// Package eventq is the bounded queue between input sources and the classifier.
package eventq

import (
	"sync"

	"github.com/sweeney/button-handler/internal/logic"
	"github.com/sweeney/button-handler/internal/ring"
)

// DefaultCapacity is the queue size used by the daemon.
const DefaultCapacity = 64

// Queue is a thread-safe FIFO of raw events. Producers call Push from their
// own goroutines; the poll loop drains it through logic.Handler.Update.
//
// When full, new events are dropped and Overflowed reports true until cleared.
type Queue struct {
	mu  sync.Mutex
	buf *ring.Buffer[logic.RawEvent]
}

// New creates a queue holding at most capacity events.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{buf: ring.New[logic.RawEvent](capacity, ring.DropNewest)}
}

// Push enqueues e. It returns false if the queue was full and e was dropped.
func (q *Queue) Push(e logic.RawEvent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Push(e)
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Len()
}

// Pop removes and returns the oldest event.
func (q *Queue) Pop() (logic.RawEvent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Pop()
}

// Overflowed reports whether an event was dropped since the last ClearOverflow.
func (q *Queue) Overflowed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.Overflowed()
}

// ClearOverflow resets the overflow flag.
func (q *Queue) ClearOverflow() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf.ClearOverflow()
}

var _ logic.Queue = (*Queue)(nil)

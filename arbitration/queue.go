package arbitration

import (
	"sync"

	"github.com/go-ebus/ebusd/telegram"
)

// SendQueue is a thread-safe FIFO of outbound telegrams. The loop owns
// the only consumer; Enqueue may be called from another goroutine
// (the one piece of the arbitration state that crosses a goroutine
// boundary, per the resource model).
type SendQueue struct {
	mu      sync.Mutex
	pending []*telegram.Telegram
}

// Enqueue appends t to the tail of the queue.
func (q *SendQueue) Enqueue(t *telegram.Telegram) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, t)
}

// Len reports the number of telegrams waiting to be sent.
func (q *SendQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// head returns the telegram at the front of the queue, or nil if
// empty. It does not remove it: a collision leaves the telegram
// queued for the next attempt.
func (q *SendQueue) head() *telegram.Telegram {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	return q.pending[0]
}

// pop removes the telegram at the front of the queue, once its send
// is done (successfully or dropped).
func (q *SendQueue) pop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return
	}
	q.pending = q.pending[1:]
}

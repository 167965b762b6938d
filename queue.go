package logq

import "sync"

// Queue is the unbounded FIFO between producers and the dispatch worker.
//
// One mutex orders every Enqueue, so delivery order equals enqueue order
// across all producers. Producers never block on capacity.
//
// Thread Safety:
//   - Enqueue, Close and Len are safe for concurrent use.
//   - wait, pop and finish are used by the single Worker.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []string
	head     int
	closed   bool
	finished bool
}

// compactThreshold is the number of consumed slots that triggers reuse of
// the backing array.
const compactThreshold = 1024

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends message and wakes the worker.
//
// Returns false only when the worker has already completed its final drain;
// the message is then dropped. Messages accepted here are always delivered.
func (q *Queue) Enqueue(message string) bool {
	q.mu.Lock()
	if q.finished {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, message)
	q.mu.Unlock()

	q.cond.Broadcast()
	return true
}

// Close sets the shutdown flag and wakes the worker. Queued messages are kept
// and still drained. Calling Close more than once is harmless.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Finished reports whether the worker has completed its final drain.
func (q *Queue) Finished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.finished
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// wait blocks until a message is queued or the queue is closed, and reports
// whether the queue is closed. Spurious wakeups re-check the condition.
func (q *Queue) wait() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.head == len(q.items) && !q.closed {
		q.cond.Wait()
	}
	return q.closed
}

// pop removes the oldest message.
func (q *Queue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
		return "", false
	}

	msg := q.items[q.head]
	q.items[q.head] = ""
	q.head++

	if q.head >= compactThreshold && q.head*2 >= len(q.items) {
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
	return msg, true
}

// finish marks the queue finished if it is closed and empty. After a
// successful finish Enqueue rejects new messages, so the check and the
// rejection are atomic with respect to producers.
func (q *Queue) finish() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed && q.head == len(q.items) {
		q.finished = true
	}
	return q.finished
}

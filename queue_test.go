package logq

import (
	"fmt"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	for i := range 5 {
		q.Enqueue(fmt.Sprintf("m%d", i))
	}
	if q.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", q.Len())
	}

	for i := range 5 {
		msg, ok := q.pop()
		if !ok {
			t.Fatalf("pop() #%d returned nothing", i)
		}
		if want := fmt.Sprintf("m%d", i); msg != want {
			t.Errorf("pop() = %q, want %q", msg, want)
		}
	}
	if _, ok := q.pop(); ok {
		t.Error("pop() on empty queue returned a message")
	}
}

func TestQueue_CompactionKeepsOrder(t *testing.T) {
	q := NewQueue()
	const n = compactThreshold*3 + 17

	next := 0
	for i := range n {
		q.Enqueue(fmt.Sprintf("%d", i))
		// Interleave pops so the head crosses the compaction threshold
		// while items remain queued.
		if i%3 == 0 {
			msg, _ := q.pop()
			if want := fmt.Sprintf("%d", next); msg != want {
				t.Fatalf("pop() = %q, want %q", msg, want)
			}
			next++
		}
	}
	for ; next < n; next++ {
		msg, ok := q.pop()
		if !ok || msg != fmt.Sprintf("%d", next) {
			t.Fatalf("pop() = %q, %v; want %d", msg, ok, next)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueue_WaitWakesOnEnqueue(t *testing.T) {
	q := NewQueue()
	woke := make(chan bool, 1)

	go func() {
		woke <- q.wait()
	}()

	select {
	case <-woke:
		t.Fatal("wait() returned before anything was queued")
	case <-time.After(20 * time.Millisecond):
	}

	q.Enqueue("hello")

	select {
	case closed := <-woke:
		if closed {
			t.Error("wait() reported closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait() did not wake after Enqueue")
	}
}

func TestQueue_WaitWakesOnClose(t *testing.T) {
	q := NewQueue()
	woke := make(chan bool, 1)

	go func() {
		woke <- q.wait()
	}()
	q.Close()

	select {
	case closed := <-woke:
		if !closed {
			t.Error("wait() = false after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wait() did not wake after Close")
	}
}

func TestQueue_WaitReturnsImmediatelyWhenNotEmpty(t *testing.T) {
	q := NewQueue()
	q.Enqueue("queued before wait")

	done := make(chan struct{})
	go func() {
		q.wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("wait() blocked with a message queued")
	}
}

func TestQueue_FinishRejectsLaterMessages(t *testing.T) {
	q := NewQueue()
	q.Enqueue("a")

	if q.finish() {
		t.Fatal("finish() succeeded on an open queue")
	}
	q.Close()
	if q.finish() {
		t.Fatal("finish() succeeded with a message queued")
	}
	if !q.Enqueue("b") {
		t.Fatal("Enqueue() rejected before finish")
	}
	if q.Finished() {
		t.Fatal("Finished() before the final drain")
	}

	q.pop()
	q.pop()
	if !q.finish() || !q.Finished() {
		t.Fatal("finish() failed on closed, empty queue")
	}
	if q.Enqueue("c") {
		t.Error("Enqueue() accepted after finish")
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

package logq

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// waitDone fails the test if w does not exit in time.
func waitDone(t *testing.T, w *Worker) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_DeliversInOrderToEverySink(t *testing.T) {
	q := NewQueue()
	sinks := NewSinkRegistry()
	first, second := &recordingSink{}, &recordingSink{}
	sinks.Add(first)  //nolint:errcheck // non-nil sink
	sinks.Add(second) //nolint:errcheck // non-nil sink

	w := NewWorker(q, sinks, nil)
	w.Start()

	for i := range 100 {
		q.Enqueue(fmt.Sprintf("line %d", i))
	}
	q.Close()
	waitDone(t, w)

	for _, s := range []*recordingSink{first, second} {
		lines := s.Lines()
		if len(lines) != 100 {
			t.Fatalf("sink got %d lines, want 100", len(lines))
		}
		for i, l := range lines {
			if want := fmt.Sprintf("line %d", i); l != want {
				t.Errorf("line %d = %q, want %q", i, l, want)
			}
		}
	}
	if w.Delivered() != 100 {
		t.Errorf("Delivered() = %d, want 100", w.Delivered())
	}
}

func TestWorker_SinkFailureDoesNotStopFanOut(t *testing.T) {
	q := NewQueue()
	sinks := NewSinkRegistry()
	failing := &recordingSink{fail: true}
	healthy := &recordingSink{}
	sinks.Add(failing) //nolint:errcheck // non-nil sink
	sinks.Add(healthy) //nolint:errcheck // non-nil sink

	w := NewWorker(q, sinks, nil)
	w.Start()
	q.Enqueue("one")
	q.Enqueue("two")
	q.Close()
	waitDone(t, w)

	if got := len(healthy.Lines()); got != 2 {
		t.Errorf("healthy sink got %d lines, want 2", got)
	}
	if got := len(failing.Lines()); got != 2 {
		t.Errorf("failing sink got %d lines, want 2 (no removal)", got)
	}
	if w.SinkFailures() != 2 {
		t.Errorf("SinkFailures() = %d, want 2", w.SinkFailures())
	}
}

func TestWorker_SlowSinkSerialisesDelivery(t *testing.T) {
	q := NewQueue()
	sinks := NewSinkRegistry()

	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	slow := SinkFunc(func(m string) bool {
		record("slow start " + m)
		time.Sleep(20 * time.Millisecond)
		record("slow end " + m)
		return true
	})
	fast := SinkFunc(func(m string) bool {
		record("fast " + m)
		return true
	})
	sinks.Add(slow) //nolint:errcheck // non-nil sink
	sinks.Add(fast) //nolint:errcheck // non-nil sink

	w := NewWorker(q, sinks, nil)
	w.Start()
	q.Enqueue("a")
	q.Enqueue("b")
	q.Close()
	waitDone(t, w)

	want := []string{
		"slow start a", "slow end a", "fast a",
		"slow start b", "slow end b", "fast b",
	}
	mu.Lock()
	defer mu.Unlock()
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestWorker_StopsOnlyAfterDrain(t *testing.T) {
	q := NewQueue()
	sinks := NewSinkRegistry()
	release := make(chan struct{})
	rec := &recordingSink{}

	gate := SinkFunc(func(string) bool {
		<-release
		return true
	})
	sinks.Add(gate) //nolint:errcheck // non-nil sink
	sinks.Add(rec)  //nolint:errcheck // non-nil sink

	w := NewWorker(q, sinks, nil)
	w.Start()
	q.Enqueue("first")

	// Give the worker time to block inside the first delivery, then queue
	// more and request shutdown while it is draining.
	time.Sleep(20 * time.Millisecond)
	q.Enqueue("second")
	q.Close()
	q.Enqueue("third")
	close(release)

	waitDone(t, w)
	if got := rec.Lines(); len(got) != 3 {
		t.Errorf("delivered %v, want 3 lines", got)
	}
}

func TestSinkRegistry_AddNil(t *testing.T) {
	r := NewSinkRegistry()
	if err := r.Add(nil); err != ErrNilSink {
		t.Errorf("Add(nil) error = %v, want ErrNilSink", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestSinkRegistry_CloseInRegistrationOrder(t *testing.T) {
	r := NewSinkRegistry()
	var order []int
	for i := range 3 {
		s := &recordingSink{onClose: func() { order = append(order, i) }}
		r.Add(s) //nolint:errcheck // non-nil sink
	}
	r.Add(SinkFunc(func(string) bool { return true })) //nolint:errcheck // sinks without Close are skipped

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("close order = %v, want [0 1 2]", order)
	}
	if r.Len() != 0 {
		t.Errorf("Len() after Close = %d, want 0", r.Len())
	}
}

package logq

import (
	"sync"
	"sync/atomic"
)

// Worker is the single goroutine that drains a Queue into a SinkRegistry.
//
// It alternates between waiting on the queue condition and draining every
// queued message. The shutdown flag is only examined between drain passes,
// so a pass in progress always completes.
type Worker struct {
	queue *Queue
	sinks *SinkRegistry
	diag  Diagnostics

	delivered    atomic.Uint64
	sinkFailures atomic.Uint64

	startOnce sync.Once
	done      chan struct{}
}

// NewWorker creates a worker for queue and sinks. It does not start it.
func NewWorker(queue *Queue, sinks *SinkRegistry, diag Diagnostics) *Worker {
	if diag == nil {
		diag = noopDiagnostics{}
	}
	return &Worker{
		queue: queue,
		sinks: sinks,
		diag:  diag,
		done:  make(chan struct{}),
	}
}

// Start launches the worker goroutine. Later calls are no-ops.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

// Done is closed once the worker has drained the queue after Close and exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Delivered returns the number of messages handed to the sinks.
func (w *Worker) Delivered() uint64 {
	return w.delivered.Load()
}

// SinkFailures returns the number of individual sink writes that failed.
func (w *Worker) SinkFailures() uint64 {
	return w.sinkFailures.Load()
}

// run is the worker loop.
func (w *Worker) run() {
	defer close(w.done)
	w.diag.Debug("dispatch worker started")

	for {
		closed := w.queue.wait()
		w.drain()

		if closed && w.queue.finish() {
			w.diag.Debug("dispatch worker stopped", "delivered", w.delivered.Load())
			return
		}
	}
}

// drain delivers messages until the queue is observed empty.
func (w *Worker) drain() {
	for {
		msg, ok := w.queue.pop()
		if !ok {
			return
		}
		if failed := w.sinks.Deliver(msg); failed > 0 {
			w.sinkFailures.Add(uint64(failed))
			w.diag.Debug("sink write failed", "sinks", failed)
		}
		w.delivered.Add(1)
	}
}

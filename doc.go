// Package logq is an asynchronous, level-filtered logger.
//
// Producers call Log (or the formatted helpers) from any goroutine. Each
// message is checked against its module's threshold, rendered into a single
// line and appended to an unbounded FIFO queue. One dispatch goroutine
// drains the queue and writes every line to each registered Sink in
// registration order.
//
// # Levels
//
// Levels are ordered from LevelError (most severe) to LevelDebugFine. A
// message passes when its level is numerically lower than or equal to the
// module threshold, so LevelError always passes.
//
// # Module levels
//
// Every module has a threshold in the LevelRegistry. Modules seen for the
// first time get the default threshold. SetLevel with final=true locks an
// entry; whether a later final call may replace it is chosen with
// WithFinalPolicy. Levels loaded from a Store are always final.
//
// # Usage
//
//	l := logq.New(
//	    logq.WithDefaultLevel(logq.LevelLog),
//	    logq.WithSinks(consoleSink, fileSink),
//	    logq.WithStore(store, true),
//	)
//	defer l.Shutdown(context.Background())
//
//	l.Logf("listening on %s", addr)
//	l.Dump(logq.LevelDebug, frame, "received frame")
//
// # Shutdown
//
// Shutdown drains every queued message, closes sinks in registration order
// and saves module levels to the store. It must be called explicitly.
package logq

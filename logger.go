package logq

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// bannerLayout is the timestamp layout of the startup banner.
const bannerLayout = "2006-01-02 15:04:05.000"

// bannerModule is the module name the startup banner is rendered with.
const bannerModule = "logq"

// Logger filters messages by module level, renders them and hands them to
// the dispatch worker. It is the entry point applications log through.
//
// A Logger must be stopped with Shutdown, which drains the queue, closes
// the sinks and persists module levels. Dropping the last reference does not.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	levels *LevelRegistry
	sinks  *SinkRegistry
	queue  *Queue
	worker *Worker
	diag   Diagnostics
	now    func() time.Time
	pid    int

	store   Store
	storeMu sync.RWMutex

	enqueued atomic.Uint64
	filtered atomic.Uint64
	dropped  atomic.Uint64

	closeOnce   sync.Once
	releaseOnce sync.Once
	releaseErr  error
}

// Stats is a snapshot of the logger's counters.
type Stats struct {
	Enqueued     uint64 `json:"enqueued"`
	Filtered     uint64 `json:"filtered"`
	Dropped      uint64 `json:"dropped"`
	Delivered    uint64 `json:"delivered"`
	SinkFailures uint64 `json:"sink_failures"`
	QueueDepth   int    `json:"queue_depth"`
	Sinks        int    `json:"sinks"`
	Modules      int    `json:"modules"`
}

// New creates a Logger and starts its dispatch worker.
//
// If a store is attached with WithStore(store, true) the stored module
// levels are loaded before New returns; a load failure is reported through
// diagnostics and the logger starts with defaults.
func New(opts ...Option) *Logger {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	levels := NewLevelRegistry(o.defaultLevel, o.policy)
	levels.SetSection(o.section)

	sinks := NewSinkRegistry()
	for _, s := range o.sinks {
		if err := sinks.Add(s); err != nil {
			o.diag.Warn("sink rejected", "error", err)
		}
	}

	queue := NewQueue()
	l := &Logger{
		levels: levels,
		sinks:  sinks,
		queue:  queue,
		worker: NewWorker(queue, sinks, o.diag),
		diag:   o.diag,
		now:    o.now,
		pid:    os.Getpid(),
		store:  o.store,
	}

	if o.store != nil && o.loadOnStart {
		if err := levels.Load(o.store); err != nil {
			o.diag.Error("loading module levels", "error", err)
		}
	}

	l.worker.Start()

	if o.startupBanner {
		now := l.now()
		l.enqueue(render(now, LevelLog, "", l.pid, bannerModule,
			"logger startup: "+now.Format(bannerLayout)))
	}
	return l
}

// Levels returns the module level registry.
func (l *Logger) Levels() *LevelRegistry {
	return l.levels
}

// SetLevel assigns a threshold to module. See LevelRegistry.SetLevel.
func (l *Logger) SetLevel(module string, level Level, final bool) Level {
	return l.levels.SetLevel(module, level, final)
}

// AddSink registers s after every previously registered sink.
//
// Returns:
//   - error: ErrNilSink for a nil sink
func (l *Logger) AddSink(s Sink) error {
	return l.sinks.Add(s)
}

// SetStore attaches or replaces the settings store.
func (l *Logger) SetStore(store Store) {
	l.storeMu.Lock()
	l.store = store
	l.storeMu.Unlock()
}

// Store returns the attached settings store, or nil.
func (l *Logger) Store() Store {
	l.storeMu.RLock()
	defer l.storeMu.RUnlock()
	return l.store
}

// SaveLevels persists module levels to the attached store.
func (l *Logger) SaveLevels() error {
	return l.levels.Save(l.Store())
}

// LoadLevels applies module levels from the attached store, marking them final.
func (l *Logger) LoadLevels() error {
	return l.levels.Load(l.Store())
}

// Stats returns a snapshot of the logger's counters.
func (l *Logger) Stats() Stats {
	return Stats{
		Enqueued:     l.enqueued.Load(),
		Filtered:     l.filtered.Load(),
		Dropped:      l.dropped.Load(),
		Delivered:    l.worker.Delivered(),
		SinkFailures: l.worker.SinkFailures(),
		QueueDepth:   l.queue.Len(),
		Sinks:        l.sinks.Len(),
		Modules:      l.levels.Len(),
	}
}

// Log enqueues text for module at level.
//
// Invalid levels and messages less severe than the module's threshold are
// discarded silently. A non-empty payload is appended as a hex dump.
// Modules seen for the first time get the default threshold.
func (l *Logger) Log(level Level, module, text string, payload []byte) {
	if module = strings.TrimSpace(module); module == "" {
		module = UnknownModule
	}
	if !l.accept(level, module) {
		return
	}
	l.emit(level, module, "", text, payload)
}

// Printf logs a formatted message at level, deriving the module and origin
// from the caller.
func (l *Logger) Printf(level Level, format string, args ...any) {
	l.printf(1, level, nil, format, args...)
}

// Dump logs a formatted message followed by a hex dump of payload.
func (l *Logger) Dump(level Level, payload []byte, format string, args ...any) {
	l.printf(1, level, payload, format, args...)
}

// Errorf logs at LevelError.
func (l *Logger) Errorf(format string, args ...any) {
	l.printf(1, LevelError, nil, format, args...)
}

// Warningf logs at LevelWarning.
func (l *Logger) Warningf(format string, args ...any) {
	l.printf(1, LevelWarning, nil, format, args...)
}

// WarningFinef logs at LevelWarningFine.
func (l *Logger) WarningFinef(format string, args ...any) {
	l.printf(1, LevelWarningFine, nil, format, args...)
}

// Logf logs at LevelLog.
func (l *Logger) Logf(format string, args ...any) {
	l.printf(1, LevelLog, nil, format, args...)
}

// LogFinef logs at LevelLogFine.
func (l *Logger) LogFinef(format string, args ...any) {
	l.printf(1, LevelLogFine, nil, format, args...)
}

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...any) {
	l.printf(1, LevelDebug, nil, format, args...)
}

// DebugFinef logs at LevelDebugFine.
func (l *Logger) DebugFinef(format string, args ...any) {
	l.printf(1, LevelDebugFine, nil, format, args...)
}

// printf captures the call site skip frames above its caller, filters,
// formats and enqueues. Formatting only happens for accepted messages.
func (l *Logger) printf(skip int, level Level, payload []byte, format string, args ...any) {
	if !level.Valid() {
		return
	}

	module, origin := callSite(skip + 1)
	if !l.accept(level, module) {
		return
	}

	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	l.emit(level, module, origin, text, payload)
}

// callSite returns the module and file:line of the frame skip levels above
// its caller.
func callSite(skip int) (module, origin string) {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return UnknownModule, ""
	}

	var name string
	if fn := runtime.FuncForPC(pc); fn != nil {
		name = fn.Name()
	}
	module = DeriveModule(FuncSignature(name), file)
	if module == "" {
		module = UnknownModule
	}
	return module, fmt.Sprintf("%s:%d", fileBase(file), line)
}

// accept applies level validation and the module threshold. Once the
// worker has finished the message is dropped before the registry is
// consulted, so a stopped logger gains no modules.
func (l *Logger) accept(level Level, module string) bool {
	if !level.Valid() {
		return false
	}
	if l.queue.Finished() {
		l.dropped.Add(1)
		return false
	}
	if !level.Passes(l.levels.Resolve(module)) {
		l.filtered.Add(1)
		return false
	}
	return true
}

// emit renders and enqueues an accepted message.
func (l *Logger) emit(level Level, module, origin, text string, payload []byte) {
	if len(payload) > 0 {
		text += "\n" + strings.TrimSuffix(HexDump(payload), "\n")
	}
	l.enqueue(render(l.now(), level, origin, l.pid, module, text))
}

// enqueue hands a rendered message to the queue and counts the outcome.
func (l *Logger) enqueue(msg string) {
	if l.queue.Enqueue(msg) {
		l.enqueued.Add(1)
		return
	}
	l.dropped.Add(1)
}

// Shutdown stops the logger.
//
// It performs:
//  1. Sets the queue's shutdown flag and wakes the worker
//  2. Waits until the worker has drained the queue and exited
//  3. Closes sinks in registration order
//  4. Saves module levels to the attached store (skipped without one)
//  5. Releases every module entry
//
// Messages logged before Shutdown is called are delivered to every sink
// before step 3. Messages logged afterwards may be dropped.
//
// Parameters:
//   - ctx: Bounds the wait for the worker. On expiry the error wraps
//     ctx.Err() and steps 3 to 5 are left for a later call.
//
// Returns:
//   - error: Joined sink close and save errors; the same result is returned
//     by every later call
func (l *Logger) Shutdown(ctx context.Context) error {
	l.closeOnce.Do(l.queue.Close)

	select {
	case <-l.worker.Done():
	case <-ctx.Done():
		return fmt.Errorf("waiting for dispatch worker: %w", ctx.Err())
	}

	l.releaseOnce.Do(func() {
		l.releaseErr = l.release()
	})
	return l.releaseErr
}

// release closes sinks, persists and clears the registry.
func (l *Logger) release() error {
	var errs []error

	if err := l.sinks.Close(); err != nil {
		l.diag.Error("closing sinks", "error", err)
		errs = append(errs, err)
	}

	if err := l.SaveLevels(); err != nil && !errors.Is(err, ErrNoStore) {
		l.diag.Error("saving module levels", "error", err)
		errs = append(errs, err)
	}

	l.levels.Clear()
	l.diag.Info("logger stopped", "delivered", l.worker.Delivered(), "dropped", l.dropped.Load())
	return errors.Join(errs...)
}

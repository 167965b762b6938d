package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce collapses the burst of events an editor or an atomic
// rename produces into a single callback.
const watchDebounce = 150 * time.Millisecond

// Watch calls fn whenever the file at path is written, created, renamed or
// removed, until ctx is cancelled.
//
// The directory is watched rather than the file itself so the watch
// survives atomic replacement (temp file + rename), which is how FileStore
// and most editors save.
//
// Parameters:
//   - ctx: Cancelling it stops the watch
//   - path: File to watch
//   - fn: Called from the watch goroutine after each debounced change
//
// Returns:
//   - <-chan error: Receives watcher errors; closed when the watch stops
//   - error: If the watcher cannot be created or the directory added
func Watch(ctx context.Context, path string, fn func()) (<-chan error, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving settings path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating settings watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close() //nolint:errcheck // Add error takes precedence
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	errs := make(chan error, 1)
	go watchLoop(ctx, watcher, target, fn, errs)
	return errs, nil
}

// watchLoop filters directory events down to target and debounces them.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, target string, fn func(), errs chan<- error) {
	defer close(errs)
	defer watcher.Close() //nolint:errcheck // Nothing to report on shutdown

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				timer.Reset(watchDebounce)
			}

		case <-timer.C:
			fn()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			select {
			case errs <- err:
			default:
			}
		}
	}
}

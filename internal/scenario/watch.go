package scenario

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for writes to settle before reloading
const DefaultDebounce = 100 * time.Millisecond

// Watch reloads the script at path every time the file changes and hands the
// result to onChange, until ctx is done. Bursts of writes within debounce
// trigger a single reload. The directory is watched rather than the file so
// editors that replace the file on save keep being followed.
func Watch(ctx context.Context, path string, debounce time.Duration, onChange func(*Script, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher failed: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("add watch path failed: %w", err)
	}

	target := filepath.Clean(path)

	debounceTimer := time.NewTimer(debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounceTimer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			onChange(nil, fmt.Errorf("watching %s: %w", path, err))

		case <-debounceTimer.C:
			onChange(Load(path))
		}
	}
}

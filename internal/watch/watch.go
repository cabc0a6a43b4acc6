// Package watch re-runs a callback when watched files change.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Run waits after the last change before
// calling back.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches files and directories and calls OnChange once per burst
// of writes. Files are watched through their parent directory so editors
// that save by rename are still seen.
type Watcher struct {
	Debounce time.Duration

	watcher  *fsnotify.Watcher
	files    map[string]bool
	dirs     map[string]bool
	onChange func()
	fire     chan struct{}
}

// New creates a watcher for paths. Empty and missing paths are skipped.
func New(paths []string, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		Debounce: DefaultDebounce,
		watcher:  fw,
		files:    map[string]bool{},
		dirs:     map[string]bool{},
		onChange: onChange,
		fire:     make(chan struct{}, 1),
	}
	added := map[string]bool{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		clean := filepath.Clean(p)
		dir := clean
		if info.IsDir() {
			w.dirs[clean] = true
		} else {
			w.files[clean] = true
			dir = filepath.Dir(clean)
		}
		if added[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %q: %w", p, err)
		}
		added[dir] = true
	}
	return w, nil
}

// Watched reports how many files and directories are being watched.
func (w *Watcher) Watched() int {
	return len(w.files) + len(w.dirs)
}

func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	return w.files[name] || w.dirs[filepath.Dir(name)]
}

// Run blocks until ctx is cancelled, calling OnChange after changes settle.
// OnChange runs on the Run goroutine, so calls never overlap; changes seen
// while it runs start a new debounce once it returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.fire:
			w.onChange()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(w.Debounce, w.signal)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch: file watcher error: %v\n", err)
		}
	}
}

// signal queues one pending callback; a burst that lands while one is
// already queued collapses into it.
func (w *Watcher) signal() {
	select {
	case w.fire <- struct{}{}:
	default:
	}
}

// Package watch converts files as they appear in a directory.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a file must go without events before it is
// handed off, so half-written files are not converted.
const DefaultSettle = 500 * time.Millisecond

// Watcher hands each new, settled file in Dir to Handle once.
type Watcher struct {
	Dir string
	// Match selects the files to handle.
	Match func(path string) bool
	// Handle converts one file. Errors are logged and watching continues.
	Handle func(ctx context.Context, path string) error
	Settle time.Duration
	Log    *log.Logger

	pending map[string]time.Time
	handled map[string]bool
}

// New creates a watcher for dir.
func New(dir string, match func(string) bool, handle func(context.Context, string) error, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		Dir:    dir,
		Match:  match,
		Handle: handle,
		Settle: DefaultSettle,
		Log:    logger,
	}
}

// Run watches until ctx is done. Files already in the directory are not
// converted; only files created or written after Run starts are.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.Dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", w.Dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}

	settle := w.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	w.pending = make(map[string]time.Time)
	w.handled = make(map[string]bool)

	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()

	w.Log.Printf("[watch] watching %s", w.Dir)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if w.handled[event.Name] || (w.Match != nil && !w.Match(event.Name)) {
				continue
			}
			w.pending[event.Name] = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Log.Printf("[watch] warning: %v", err)
		case now := <-ticker.C:
			w.flush(ctx, now, settle)
		}
	}
}

// flush hands off every pending file that has been quiet for settle.
func (w *Watcher) flush(ctx context.Context, now time.Time, settle time.Duration) {
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)

	for _, path := range ready {
		delete(w.pending, path)
		w.handled[path] = true
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		w.Log.Printf("[watch] converting %s", filepath.Base(path))
		if err := w.Handle(ctx, path); err != nil {
			w.Log.Printf("[watch] %s: %v", path, err)
		}
	}
}

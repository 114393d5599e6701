package config

import (
	"context"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher republishes fresh snapshots of a ParamStore's config file
// whenever it changes on disk. This is additive ambient behavior not
// named in the distilled spec (see SPEC_FULL.md section 4.3.6); it gives
// the teacher's otherwise-unused fsnotify dependency a home.
type Watcher struct {
	store  *ParamStore
	logger *slog.Logger

	mu        sync.Mutex
	listeners []func(map[string]any)
}

// NewWatcher wraps store with change notification. Call Start to begin
// watching; cancel the context to stop.
func NewWatcher(store *ParamStore, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{store: store, logger: logger}
}

// Subscribe registers a callback invoked (with the fresh snapshot) every
// time the watched file changes and reloads successfully.
func (w *Watcher) Subscribe(fn func(map[string]any)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Start begins watching the store's config file for changes, reloading
// and notifying subscribers on each write. It runs until ctx is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.store.Path()); err != nil {
		fsw.Close()
		return err
	}

	go func() {
		defer fsw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := w.store.Reload(); err != nil {
					w.logger.Warn("config reload failed", "error", err)
					continue
				}
				w.notify(w.store.AllValues())
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("config watcher error", "error", err)
			}
		}
	}()
	return nil
}

func (w *Watcher) notify(snap map[string]any) {
	w.mu.Lock()
	listeners := append([]func(map[string]any){}, w.listeners...)
	w.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

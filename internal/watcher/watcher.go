// Package watcher monitors the workshop content root and triggers a rescan
// when items are installed, updated, or removed.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the burst of filesystem events a workshop
// download produces into a single rescan.
const debounceWindow = 2 * time.Second

// Watcher debounces content-root changes into rescan callbacks.
type Watcher struct {
	watcher *fsnotify.Watcher
	onBurst func()
	logger  *slog.Logger

	mu    sync.Mutex
	timer *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher that invokes onBurst once per settled change burst.
func New(onBurst func(), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsw,
		onBurst: onBurst,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Watch replaces the watched content root. Previously watched paths are
// dropped so a source re-selection moves the watch along.
func (w *Watcher) Watch(root string) error {
	for _, path := range w.watcher.WatchList() {
		_ = w.watcher.Remove(path)
	}
	if root == "" {
		return nil
	}
	if err := w.watcher.Add(root); err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	w.logger.Info("watching content root", "root", root)
	return nil
}

// Start processes events until the context is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop terminates event processing and releases the underlying watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return err
}

// run drains fsnotify events, arming the debounce timer on each.
func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("content root changed", "path", event.Name, "op", event.Op.String())
			w.arm()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// arm (re)starts the debounce timer.
func (w *Watcher) arm() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceWindow, w.onBurst)
}

package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/wallvault/wallvault-server/internal/config"
	"github.com/wallvault/wallvault-server/internal/logger"
	"github.com/wallvault/wallvault-server/internal/service"
	"github.com/wallvault/wallvault-server/internal/watcher"
)

// WatcherHandle wraps the content-root watcher with its lifecycle.
type WatcherHandle struct {
	watcher *watcher.Watcher
	cancel  context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *WatcherHandle) Shutdown() error {
	if h.watcher == nil {
		return nil
	}
	h.cancel()
	return h.watcher.Stop()
}

// ProvideWatcher provides the auto-rescan watcher when enabled. It follows
// the content root across source re-selections via the scan observer.
func ProvideWatcher(i do.Injector) (*WatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Library.Watch {
		return &WatcherHandle{}, nil
	}

	log := do.MustInvoke[*logger.Logger](i)
	library := do.MustInvoke[*service.LibraryService](i)

	w, err := watcher.New(func() {
		if err := library.Refresh(context.Background()); err != nil {
			log.Warn("automatic rescan failed", "error", err)
		}
	}, log.Logger)
	if err != nil {
		return nil, err
	}

	library.SetOnScan(func(root string) {
		if err := w.Watch(root); err != nil {
			log.Warn("could not watch content root", "root", root, "error", err)
		}
	})

	// Pick up a root the startup scan may already have resolved.
	if root := library.ContentRoot(); root != "" {
		if err := w.Watch(root); err != nil {
			log.Warn("could not watch content root", "root", root, "error", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	log.Info("content root watcher started")
	return &WatcherHandle{watcher: w, cancel: cancel}, nil
}

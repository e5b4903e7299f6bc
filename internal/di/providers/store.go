package providers

import (
	"github.com/samber/do/v2"

	"github.com/wallvault/wallvault-server/internal/config"
	"github.com/wallvault/wallvault-server/internal/logger"
	"github.com/wallvault/wallvault-server/internal/store"
)

// StoreHandle wraps the library store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Store.Close()
}

// ProvideStore provides the persisted library store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	st, err := store.New(cfg.Store.DataPath, log.Logger)
	if err != nil {
		return nil, err
	}

	return &StoreHandle{Store: st}, nil
}

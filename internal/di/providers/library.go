package providers

import (
	"github.com/samber/do/v2"

	"github.com/wallvault/wallvault-server/internal/catalog"
	"github.com/wallvault/wallvault-server/internal/config"
	"github.com/wallvault/wallvault-server/internal/domain"
	"github.com/wallvault/wallvault-server/internal/logger"
	"github.com/wallvault/wallvault-server/internal/scanner"
	"github.com/wallvault/wallvault-server/internal/service"
	"github.com/wallvault/wallvault-server/internal/steam"
)

// ProvideResolver provides the workshop content root resolver.
func ProvideResolver(i do.Injector) (*steam.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	return steam.NewResolver(cfg.Library.WorkshopID, log.Logger), nil
}

// ProvideScanner provides the catalog scanner.
func ProvideScanner(i do.Injector) (*scanner.Scanner, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	restricted := domain.NewRestrictedSet(cfg.Library.RestrictedRatings...)
	return scanner.New(restricted, log.Logger), nil
}

// ProvideCatalog provides the shared catalog holder.
func ProvideCatalog(i do.Injector) (*catalog.Library, error) {
	return catalog.NewLibrary(), nil
}

// ProvideLibraryService provides the library orchestration service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	resolver := do.MustInvoke[*steam.Resolver](i)
	sc := do.MustInvoke[*scanner.Scanner](i)
	lib := do.MustInvoke[*catalog.Library](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, resolver, sc, lib, log.Logger), nil
}

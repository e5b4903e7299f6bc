// Package service contains the library orchestration: source selection,
// scanning, catalog publication, and listing decoration.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wallvault/wallvault-server/internal/catalog"
	"github.com/wallvault/wallvault-server/internal/domain"
	"github.com/wallvault/wallvault-server/internal/errors"
	"github.com/wallvault/wallvault-server/internal/id"
	"github.com/wallvault/wallvault-server/internal/scanner"
	"github.com/wallvault/wallvault-server/internal/steam"
	"github.com/wallvault/wallvault-server/internal/store"
)

// LibraryService wires the resolver, scanner, catalog, and store together.
// Scans are serialized: one runs at a time, synchronously with its trigger.
type LibraryService struct {
	store    *store.Store
	resolver *steam.Resolver
	scanner  *scanner.Scanner
	library  *catalog.Library
	logger   *slog.Logger

	scanMu sync.Mutex

	localURL string
	lanURL   string

	// onScan, when set, is told the content root after every scan attempt
	// ("" when resolution failed or the selection was reset).
	onScan func(root string)
}

// NewLibraryService creates the library service.
func NewLibraryService(st *store.Store, resolver *steam.Resolver, sc *scanner.Scanner, lib *catalog.Library, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		store:    st,
		resolver: resolver,
		scanner:  sc,
		library:  lib,
		logger:   logger,
	}
}

// SetAddresses records the URLs shown on the status page.
func (s *LibraryService) SetAddresses(localURL, lanURL string) {
	s.localURL = localURL
	s.lanURL = lanURL
}

// SetOnScan registers a callback observing the content root of every scan
// attempt. Used to retarget the content-root watcher.
func (s *LibraryService) SetOnScan(fn func(root string)) {
	s.onScan = fn
}

// notifyScan reports the current content root to the registered observer.
func (s *LibraryService) notifyScan(root string) {
	if s.onScan != nil {
		s.onScan(root)
	}
}

// NormalizeSelection validates a raw selection: "auto" or a single drive
// letter. Returns the canonical form (upper-cased letter).
func NormalizeSelection(raw string) (string, error) {
	if raw == store.SourceAuto {
		return store.SourceAuto, nil
	}
	if len(raw) == 1 {
		c := raw[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c >= 'A' && c <= 'Z' {
			return string(c), nil
		}
	}
	return "", errors.Validation("Invalid drive letter")
}

// SelectSource scans the given selection and, on success, persists it.
// A failed resolution leaves the stored selection untouched.
func (s *LibraryService) SelectSource(ctx context.Context, selection string) error {
	selection, err := NormalizeSelection(selection)
	if err != nil {
		return err
	}

	if err := s.Rescan(ctx, selection); err != nil {
		return err
	}

	return s.store.SetSourceSelection(ctx, selection)
}

// Refresh re-runs the scan using the stored selection.
func (s *LibraryService) Refresh(ctx context.Context) error {
	selection, err := s.store.GetSourceSelection(ctx)
	if err != nil {
		return err
	}
	if selection == "" {
		return errors.Validation("No drive selected yet")
	}
	return s.Rescan(ctx, selection)
}

// Reset clears the stored selection and empties the catalog. Play history
// and the visitor set persist.
func (s *LibraryService) Reset(ctx context.Context) error {
	if err := s.store.ClearSourceSelection(ctx); err != nil {
		return err
	}
	s.library.Replace(catalog.EmptySnapshot())
	s.library.SetStatus(domain.Status{LastRefresh: time.Now(), LocalURL: s.localURL, LanURL: s.lanURL})
	s.notifyScan("")
	return nil
}

// Configured reports whether a source selection is stored.
func (s *LibraryService) Configured(ctx context.Context) (bool, error) {
	selection, err := s.store.GetSourceSelection(ctx)
	if err != nil {
		return false, err
	}
	return selection != "", nil
}

// Rescan resolves the selection and replaces the published catalog
// wholesale. On resolution failure the catalog is cleared rather than left
// stale, so listings always reflect the latest attempt.
func (s *LibraryService) Rescan(ctx context.Context, selection string) error {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	status := domain.Status{
		ScanID:      id.MustGenerate("scan"),
		LastRefresh: time.Now(),
		LocalURL:    s.localURL,
		LanURL:      s.lanURL,
	}

	root, err := s.resolve(selection)
	if err != nil {
		s.library.Replace(catalog.EmptySnapshot())
		s.library.SetStatus(status)
		s.logger.Warn("content root not found", "selection", selection)
		s.notifyScan("")
		return err
	}
	status.ContentRoot = root

	snapshot, result, err := s.scanner.Scan(root)
	if err != nil {
		s.library.Replace(catalog.EmptySnapshot())
		s.library.SetStatus(status)
		s.notifyScan("")
		return errors.ContentRootNotFound("content root could not be read").WithCause(err)
	}

	status.WallpaperCount = result.Accepted
	status.SkippedCount = result.Skipped
	s.library.Replace(snapshot)
	s.library.SetStatus(status)
	s.notifyScan(root)
	return nil
}

// StartupScan runs the initial scan when a selection is already stored.
// Failures are logged and non-fatal; the server starts with an empty catalog.
func (s *LibraryService) StartupScan(ctx context.Context) {
	selection, err := s.store.GetSourceSelection(ctx)
	if err != nil {
		s.logger.Error("could not read stored selection", "error", err)
		return
	}
	if selection == "" {
		return
	}

	s.logger.Info("stored selection found, scanning", "selection", selection)
	if err := s.Rescan(ctx, selection); err != nil {
		s.logger.Warn("startup scan failed", "selection", selection, "error", err)
	}
}

// resolve maps a selection to a content root.
func (s *LibraryService) resolve(selection string) (string, error) {
	if selection == store.SourceAuto {
		return s.resolver.ResolveAuto()
	}
	return s.resolver.ResolveDrive(selection)
}

// ContentRoot returns the content root of the last successful resolution,
// or "" when none.
func (s *LibraryService) ContentRoot() string {
	return s.library.Status().ContentRoot
}

// Lookup finds a wallpaper in the current snapshot.
func (s *LibraryService) Lookup(id string) (domain.Wallpaper, bool) {
	return s.library.Current().Lookup(id)
}

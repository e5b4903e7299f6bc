// Package scanner builds catalog snapshots from a workshop content root.
//
// Scanning is best-effort: a malformed or incomplete item is skipped and
// counted, never allowed to abort the scan.
package scanner

import (
	"encoding/json/v2"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wallvault/wallvault-server/internal/catalog"
	"github.com/wallvault/wallvault-server/internal/domain"
	"github.com/wallvault/wallvault-server/internal/media/preview"
)

// descriptorName is the per-item metadata file written by the workshop.
const descriptorName = "project.json"

// projectDescriptor is the subset of project.json the scanner reads.
type projectDescriptor struct {
	Title         string   `json:"title"`
	Type          string   `json:"type"`
	File          string   `json:"file"`
	Preview       string   `json:"preview"`
	Tags          []string `json:"tags"`
	ContentRating string   `json:"contentrating"`
}

// Result summarizes one scan pass.
type Result struct {
	Accepted int
	Skipped  int
}

// Scanner reads item descriptors under a content root and produces catalog
// snapshots. It owns no state between scans.
type Scanner struct {
	restricted domain.RestrictedSet
	logger     *slog.Logger
}

// New creates a scanner classifying ratings against the given restricted set.
func New(restricted domain.RestrictedSet, logger *slog.Logger) *Scanner {
	return &Scanner{restricted: restricted, logger: logger}
}

// Scan walks the immediate subdirectories of root and builds a fresh
// snapshot. It fails only when the root itself cannot be iterated; item-level
// problems (missing descriptor, parse failure, wrong type, missing media
// file) skip that item. A found-but-empty root is a successful empty scan.
func (s *Scanner) Scan(root string) (*catalog.Snapshot, Result, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return catalog.EmptySnapshot(), Result{}, err
	}

	var result Result
	wallpapers := make([]domain.Wallpaper, 0, len(entries))

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		itemDir := filepath.Join(root, entry.Name())
		wp, ok := s.scanItem(entry.Name(), itemDir)
		if !ok {
			result.Skipped++
			continue
		}

		wallpapers = append(wallpapers, wp)
		result.Accepted++
	}

	s.logger.Info("scan complete",
		"root", root,
		"accepted", result.Accepted,
		"skipped", result.Skipped,
	)

	return catalog.NewSnapshot(wallpapers), result, nil
}

// scanItem reads one item directory. Returns ok=false for anything that is
// not an accessible video item.
func (s *Scanner) scanItem(id, itemDir string) (domain.Wallpaper, bool) {
	raw, err := os.ReadFile(filepath.Join(itemDir, descriptorName)) //#nosec G304 -- path built from the scanned root
	if err != nil {
		return domain.Wallpaper{}, false
	}

	var desc projectDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		s.logger.Debug("skipping item with malformed descriptor", "id", id, "error", err)
		return domain.Wallpaper{}, false
	}

	if desc.Type != "video" || desc.File == "" {
		return domain.Wallpaper{}, false
	}

	mediaPath := filepath.Join(itemDir, desc.File)
	info, err := os.Stat(mediaPath)
	if err != nil || info.IsDir() {
		s.logger.Debug("skipping item with missing media file", "id", id, "file", desc.File)
		return domain.Wallpaper{}, false
	}

	wp := domain.NewWallpaper(id, desc.Title, mediaPath, desc.Tags, s.restricted.Classify(desc.ContentRating), info.ModTime())

	if desc.Preview != "" {
		previewPath := filepath.Join(itemDir, desc.Preview)
		if _, err := os.Stat(previewPath); err == nil {
			wp.PreviewPath = previewPath
			if hash, err := preview.ComputeBlurHash(previewPath); err == nil {
				wp.BlurHash = hash
			} else {
				s.logger.Debug("could not compute preview blurhash", "id", id, "error", err)
			}
		}
	}

	return wp, true
}

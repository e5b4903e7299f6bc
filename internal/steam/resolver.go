// Package steam locates Wallpaper Engine workshop content roots across the
// filesystem layouts Steam uses, either on an explicit volume or by
// discovering the Steam installation itself.
package steam

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/wallvault/wallvault-server/internal/errors"
)

// steamappsTemplates are the known relative layouts of a steamapps directory
// under a volume root, tried in order; first match wins.
var steamappsTemplates = []string{
	filepath.Join("SteamLibrary", "steamapps"),
	filepath.Join("Program Files (x86)", "Steam", "steamapps"),
	filepath.Join("Steam", "steamapps"),
	"steamapps",
}

// Resolver finds the workshop content root for a single app id.
// It never inspects item descriptors; that is the scanner's job.
type Resolver struct {
	appID  string
	logger *slog.Logger

	// Overridable for tests.
	driveRoot   func(letter string) string
	installDirs func() []string
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithDriveRoot overrides how a volume letter maps to a filesystem root.
func WithDriveRoot(fn func(letter string) string) Option {
	return func(r *Resolver) { r.driveRoot = fn }
}

// WithInstallDirs overrides the candidate Steam installation directories.
func WithInstallDirs(fn func() []string) Option {
	return func(r *Resolver) { r.installDirs = fn }
}

// NewResolver creates a resolver for the given workshop app id.
func NewResolver(appID string, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		appID:       appID,
		logger:      logger,
		driveRoot:   defaultDriveRoot,
		installDirs: defaultInstallDirs,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveDrive resolves the content root on an explicit volume, trying each
// known steamapps layout under the volume root.
// Returns ErrContentRootNotFound when no layout matches.
func (r *Resolver) ResolveDrive(letter string) (string, error) {
	root := r.driveRoot(letter)
	if path, ok := r.findWorkshopRoot(root); ok {
		return path, nil
	}
	return "", errors.ContentRootNotFoundf("no workshop content for app %s on drive %s", r.appID, letter)
}

// ResolveAuto locates the Steam installation, reads its libraryfolders
// descriptor, and picks the first library holding the app. Falls back to the
// installation's own steamapps directory.
func (r *Resolver) ResolveAuto() (string, error) {
	for _, installDir := range r.installDirs() {
		if _, err := os.Stat(installDir); err != nil {
			continue
		}

		libraries, err := ReadLibraryFolders(filepath.Join(installDir, "steamapps", "libraryfolders.vdf"))
		if err != nil {
			// A missing descriptor is not fatal; the install dir itself is
			// still a candidate library. A malformed one means the library
			// layout cannot be trusted, so auto-detect gives up.
			if !os.IsNotExist(err) {
				return "", errors.ContentRootNotFoundf("malformed libraryfolders.vdf under %s", installDir).WithCause(err)
			}
			r.logger.Debug("no libraryfolders descriptor", "install_dir", installDir)
		}

		for _, lib := range libraries {
			if !lib.HasApp(r.appID) {
				continue
			}
			if path, ok := r.contentRootAt(filepath.Join(lib.Path, "steamapps")); ok {
				return path, nil
			}
		}

		if path, ok := r.contentRootAt(filepath.Join(installDir, "steamapps")); ok {
			return path, nil
		}
	}
	return "", errors.ContentRootNotFoundf("no Steam library with workshop content for app %s", r.appID)
}

// findWorkshopRoot tries the known steamapps layouts under a volume root.
func (r *Resolver) findWorkshopRoot(volumeRoot string) (string, bool) {
	for _, template := range steamappsTemplates {
		if path, ok := r.contentRootAt(filepath.Join(volumeRoot, template)); ok {
			return path, true
		}
	}
	return "", false
}

// contentRootAt checks whether a steamapps directory holds workshop content
// for the resolver's app id and returns that content root.
func (r *Resolver) contentRootAt(steamapps string) (string, bool) {
	path := filepath.Join(steamapps, "workshop", "content", r.appID)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return path, true
}

// defaultDriveRoot maps a volume letter to its filesystem root.
func defaultDriveRoot(letter string) string {
	if runtime.GOOS == "windows" {
		return letter + `:\`
	}
	// Non-Windows hosts see removable volumes under the standard mount points.
	return filepath.Join("/media", letter)
}

// defaultInstallDirs lists candidate Steam installation directories per platform.
func defaultInstallDirs() []string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		dirs := []string{}
		if pf := os.Getenv("ProgramFiles(x86)"); pf != "" {
			dirs = append(dirs, filepath.Join(pf, "Steam"))
		}
		if pf := os.Getenv("ProgramFiles"); pf != "" {
			dirs = append(dirs, filepath.Join(pf, "Steam"))
		}
		return dirs
	case "darwin":
		return []string{filepath.Join(home, "Library", "Application Support", "Steam")}
	default:
		return []string{
			filepath.Join(home, ".steam", "steam"),
			filepath.Join(home, ".local", "share", "Steam"),
		}
	}
}

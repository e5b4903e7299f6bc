package steam

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/andygrunwald/vdf"
)

// Library is one storage root listed in Steam's libraryfolders.vdf,
// together with the app ids installed there.
type Library struct {
	Path   string
	AppIDs map[string]struct{}
}

// HasApp reports whether the library holds the given app id.
// Libraries from the legacy path-only format carry no app set; for those the
// answer is optimistic and the caller's existence check decides.
func (l Library) HasApp(appID string) bool {
	if l.AppIDs == nil {
		return true
	}
	_, ok := l.AppIDs[appID]
	return ok
}

// ReadLibraryFolders parses a libraryfolders.vdf file into its listed
// libraries, preserving the file's numeric ordering.
func ReadLibraryFolders(path string) ([]Library, error) {
	f, err := os.Open(path) //#nosec G304 -- path derived from Steam install discovery
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := vdf.NewParser(f).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse libraryfolders.vdf: %w", err)
	}

	folders, ok := doc["libraryfolders"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("libraryfolders.vdf: missing libraryfolders block")
	}

	// Entries are keyed "0", "1", ... The parser returns a map, so restore
	// the declared order by sorting the numeric keys.
	keys := make([]string, 0, len(folders))
	for k := range folders {
		if _, err := strconv.Atoi(k); err == nil {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})

	libraries := make([]Library, 0, len(keys))
	for _, k := range keys {
		switch entry := folders[k].(type) {
		case string:
			// Legacy format: "1" "D:\\SteamLibrary".
			libraries = append(libraries, Library{Path: entry})
		case map[string]interface{}:
			lib := Library{}
			if p, ok := entry["path"].(string); ok {
				lib.Path = p
			}
			if lib.Path == "" {
				continue
			}
			if apps, ok := entry["apps"].(map[string]interface{}); ok {
				lib.AppIDs = make(map[string]struct{}, len(apps))
				for appID := range apps {
					lib.AppIDs[appID] = struct{}{}
				}
			}
			libraries = append(libraries, lib)
		}
	}
	return libraries, nil
}

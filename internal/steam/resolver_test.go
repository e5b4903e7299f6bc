package steam

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallvault/wallvault-server/internal/errors"
)

const testAppID = "431960"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// makeContentRoot creates steamapps/workshop/content/<app> under base and
// returns the content root path.
func makeContentRoot(t *testing.T, base string) string {
	t.Helper()
	root := filepath.Join(base, "steamapps", "workshop", "content", testAppID)
	require.NoError(t, os.MkdirAll(root, 0o755))
	return root
}

func fixedDriveRoot(root string) Option {
	return WithDriveRoot(func(string) string { return root })
}

func TestResolveDrive_TriesLayoutsInOrder(t *testing.T) {
	tests := []struct {
		name   string
		layout string
	}{
		{"dedicated library", "SteamLibrary"},
		{"default install", filepath.Join("Program Files (x86)", "Steam")},
		{"bare steam dir", "Steam"},
		{"steamapps at root", "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			volume := t.TempDir()
			want := makeContentRoot(t, filepath.Join(volume, tt.layout))

			r := NewResolver(testAppID, testLogger(), fixedDriveRoot(volume))
			got, err := r.ResolveDrive("D")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestResolveDrive_PrefersDedicatedLibrary(t *testing.T) {
	volume := t.TempDir()
	preferred := makeContentRoot(t, filepath.Join(volume, "SteamLibrary"))
	makeContentRoot(t, filepath.Join(volume, "Steam"))

	r := NewResolver(testAppID, testLogger(), fixedDriveRoot(volume))
	got, err := r.ResolveDrive("D")
	require.NoError(t, err)
	assert.Equal(t, preferred, got)
}

func TestResolveDrive_NoContent(t *testing.T) {
	r := NewResolver(testAppID, testLogger(), fixedDriveRoot(t.TempDir()))

	_, err := r.ResolveDrive("E")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrContentRootNotFound))
}

func TestResolveDrive_ContentRootMustBeDirectory(t *testing.T) {
	volume := t.TempDir()
	parent := filepath.Join(volume, "steamapps", "workshop", "content")
	require.NoError(t, os.MkdirAll(parent, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, testAppID), []byte("x"), 0o600))

	r := NewResolver(testAppID, testLogger(), fixedDriveRoot(volume))
	_, err := r.ResolveDrive("D")
	assert.True(t, errors.Is(err, errors.ErrContentRootNotFound))
}

func writeLibraryFolders(t *testing.T, installDir, content string) {
	t.Helper()
	dir := filepath.Join(installDir, "steamapps")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "libraryfolders.vdf"), []byte(content), 0o600))
}

func vdfEntry(index, path, appID string) string {
	return `	"` + index + `"
	{
		"path"		"` + path + `"
		"apps"
		{
			"` + appID + `"		"123456"
		}
	}
`
}

func TestResolveAuto_UsesLibraryHoldingApp(t *testing.T) {
	installDir := t.TempDir()
	library := t.TempDir()
	want := makeContentRoot(t, library)

	writeLibraryFolders(t, installDir,
		`"libraryfolders"
{
`+vdfEntry("0", installDir, "999")+vdfEntry("1", library, testAppID)+`}
`)

	r := NewResolver(testAppID, testLogger(),
		WithInstallDirs(func() []string { return []string{installDir} }))

	got, err := r.ResolveAuto()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveAuto_FirstMatchingLibraryWins(t *testing.T) {
	installDir := t.TempDir()
	first := t.TempDir()
	second := t.TempDir()
	want := makeContentRoot(t, first)
	makeContentRoot(t, second)

	writeLibraryFolders(t, installDir,
		`"libraryfolders"
{
`+vdfEntry("0", first, testAppID)+vdfEntry("1", second, testAppID)+`}
`)

	r := NewResolver(testAppID, testLogger(),
		WithInstallDirs(func() []string { return []string{installDir} }))

	got, err := r.ResolveAuto()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveAuto_FallsBackToInstallDir(t *testing.T) {
	installDir := t.TempDir()
	want := makeContentRoot(t, installDir)

	// No libraryfolders.vdf at all.
	r := NewResolver(testAppID, testLogger(),
		WithInstallDirs(func() []string { return []string{installDir} }))

	got, err := r.ResolveAuto()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveAuto_MalformedLibraryFoldersAborts(t *testing.T) {
	installDir := t.TempDir()
	// Workshop content exists under the install dir, but the truncated
	// descriptor means the library layout cannot be trusted.
	makeContentRoot(t, installDir)
	writeLibraryFolders(t, installDir, `"libraryfolders"
{
	"0"
	{
		"path"`)

	r := NewResolver(testAppID, testLogger(),
		WithInstallDirs(func() []string { return []string{installDir} }))

	_, err := r.ResolveAuto()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrContentRootNotFound))
}

func TestResolveAuto_SkipsMissingInstallDirs(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	installDir := t.TempDir()
	want := makeContentRoot(t, installDir)

	r := NewResolver(testAppID, testLogger(),
		WithInstallDirs(func() []string { return []string{missing, installDir} }))

	got, err := r.ResolveAuto()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveAuto_NothingFound(t *testing.T) {
	r := NewResolver(testAppID, testLogger(),
		WithInstallDirs(func() []string { return nil }))

	_, err := r.ResolveAuto()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrContentRootNotFound))
}

func TestReadLibraryFolders_ModernFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "libraryfolders.vdf")
	require.NoError(t, os.WriteFile(path, []byte(`"libraryfolders"
{
	"contentstatsid"		"-123"
	"0"
	{
		"path"		"/home/user/.steam/steam"
		"apps"
		{
			"431960"		"111"
		}
	}
	"1"
	{
		"path"		"/mnt/games/SteamLibrary"
		"apps"
		{
			"999"		"222"
		}
	}
}
`), 0o600))

	libraries, err := ReadLibraryFolders(path)
	require.NoError(t, err)
	require.Len(t, libraries, 2)

	assert.Equal(t, "/home/user/.steam/steam", libraries[0].Path)
	assert.True(t, libraries[0].HasApp("431960"))
	assert.False(t, libraries[0].HasApp("999"))

	assert.Equal(t, "/mnt/games/SteamLibrary", libraries[1].Path)
	assert.True(t, libraries[1].HasApp("999"))
}

func TestReadLibraryFolders_LegacyFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "libraryfolders.vdf")
	require.NoError(t, os.WriteFile(path, []byte(`"libraryfolders"
{
	"TimeNextStatsReport"		"123"
	"1"		"/mnt/games"
}
`), 0o600))

	libraries, err := ReadLibraryFolders(path)
	require.NoError(t, err)
	require.Len(t, libraries, 1)

	assert.Equal(t, "/mnt/games", libraries[0].Path)
	// Legacy entries carry no app set; membership is optimistic.
	assert.True(t, libraries[0].HasApp(testAppID))
}

func TestReadLibraryFolders_Missing(t *testing.T) {
	_, err := ReadLibraryFolders(filepath.Join(t.TempDir(), "libraryfolders.vdf"))
	assert.Error(t, err)
}

func TestReadLibraryFolders_Ordering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "libraryfolders.vdf")
	require.NoError(t, os.WriteFile(path, []byte(`"libraryfolders"
{
	"10"
	{
		"path"		"/j"
	}
	"2"
	{
		"path"		"/b"
	}
	"0"
	{
		"path"		"/a"
	}
}
`), 0o600))

	libraries, err := ReadLibraryFolders(path)
	require.NoError(t, err)
	require.Len(t, libraries, 3)
	assert.Equal(t, "/a", libraries[0].Path)
	assert.Equal(t, "/b", libraries[1].Path)
	assert.Equal(t, "/j", libraries[2].Path)
}

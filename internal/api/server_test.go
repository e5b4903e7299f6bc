package api

import (
	"bytes"
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallvault/wallvault-server/internal/catalog"
	"github.com/wallvault/wallvault-server/internal/domain"
	"github.com/wallvault/wallvault-server/internal/ratelimit"
	"github.com/wallvault/wallvault-server/internal/scanner"
	"github.com/wallvault/wallvault-server/internal/service"
	"github.com/wallvault/wallvault-server/internal/steam"
	"github.com/wallvault/wallvault-server/internal/store"
)

const testAppID = "431960"

// testServer wires the full HTTP stack against a temp store and a resolver
// pinned to a temp volume.
type testServer struct {
	server *Server
	store  *store.Store
	volume string
}

func newTestServer(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New(t.TempDir(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	volume := t.TempDir()
	resolver := steam.NewResolver(testAppID, logger,
		steam.WithDriveRoot(func(string) string { return volume }),
		steam.WithInstallDirs(func() []string { return nil }))

	library := service.NewLibraryService(st, resolver,
		scanner.New(domain.DefaultRestrictedRatings(), logger),
		catalog.NewLibrary(), logger)

	if limiter == nil {
		limiter = ratelimit.New(1000, 1000)
	}
	t.Cleanup(limiter.Stop)

	return &testServer{
		server: NewServer(library, st, limiter, logger),
		store:  st,
		volume: volume,
	}
}

// seedItem places a valid video item on the test volume and returns the
// media file's content.
func (ts *testServer) seedItem(t *testing.T, id, title string, media []byte) {
	t.Helper()
	dir := filepath.Join(ts.volume, "steamapps", "workshop", "content", testAppID, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	descriptor := `{"type":"video","file":"video.mp4","title":"` + title + `"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.json"), []byte(descriptor), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "video.mp4"), media, 0o600))
}

func (ts *testServer) do(t *testing.T, method, path string, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "192.168.1.50:54321"
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func (ts *testServer) selectDrive(t *testing.T) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/select-drive", `{"drive":"D"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestConfigStatus_Lifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedItem(t, "100", "Ocean", []byte("fake video"))

	rec := ts.do(t, http.MethodGet, "/api/config-status", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"configured":false}`, rec.Body.String())

	ts.selectDrive(t)

	rec = ts.do(t, http.MethodGet, "/api/config-status", "", nil)
	assert.JSONEq(t, `{"configured":true}`, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/api/reset-config", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/config-status", "", nil)
	assert.JSONEq(t, `{"configured":false}`, rec.Body.String())
}

func TestSelectDrive_Success(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedItem(t, "100", "Ocean", []byte("fake video"))

	rec := ts.do(t, http.MethodPost, "/api/select-drive", `{"drive":"D"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	decodeBody(t, rec, &payload)
	assert.Equal(t, "success", payload.Status)
	assert.Contains(t, payload.Message, "D")
}

func TestSelectDrive_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{"drive":`, http.StatusBadRequest},
		{"missing drive", `{}`, http.StatusBadRequest},
		{"invalid letter", `{"drive":"DD"}`, http.StatusBadRequest},
		{"no content on volume", `{"drive":"D"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, nil)
			rec := ts.do(t, http.MethodPost, "/api/select-drive", tt.body, nil)
			assert.Equal(t, tt.want, rec.Code)

			var envelope struct {
				Status  string `json:"status"`
				Message string `json:"message"`
			}
			decodeBody(t, rec, &envelope)
			assert.Equal(t, "error", envelope.Status)
			assert.NotEmpty(t, envelope.Message)
		})
	}
}

func TestRefresh_WithoutSelection(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/refresh", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No drive selected yet")
}

func TestData_DecoratedCatalog(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedItem(t, "100", "Ocean", []byte("fake video"))
	ts.selectDrive(t)

	rec := ts.do(t, http.MethodPost, "/api/update-history", `{"id":"100","incrementPlayCount":true,"progress":12.5}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/data", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Wallpapers []struct {
			ID        string  `json:"id"`
			Title     string  `json:"title"`
			PlayCount int     `json:"playCount"`
			Progress  float64 `json:"progress"`
		} `json:"wallpapers"`
		Tags []string `json:"tags"`
	}
	decodeBody(t, rec, &payload)
	require.Len(t, payload.Wallpapers, 1)
	assert.Equal(t, "100", payload.Wallpapers[0].ID)
	assert.Equal(t, "Ocean", payload.Wallpapers[0].Title)
	assert.Equal(t, 1, payload.Wallpapers[0].PlayCount)
	assert.Equal(t, 12.5, payload.Wallpapers[0].Progress)
	assert.NotNil(t, payload.Tags)
}

func TestUpdateHistory_Validation(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/update-history", `{"incrementPlayCount":true}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/update-history", `{"id":"100","progress":-3}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateHistory_MonotonicProgress(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/update-history", `{"id":"100","progress":60}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/update-history", `{"id":"100","progress":20}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Status  string               `json:"status"`
		Updated domain.HistoryRecord `json:"updated_history"`
	}
	decodeBody(t, rec, &payload)
	assert.Equal(t, "success", payload.Status)
	assert.Equal(t, 60.0, payload.Updated.Progress)
	assert.Zero(t, payload.Updated.PlayCount)
}

func TestStreamVideo_FullBody(t *testing.T) {
	media := bytes.Repeat([]byte("0123456789"), 100)
	ts := newTestServer(t, nil)
	ts.seedItem(t, "100", "Ocean", media)
	ts.selectDrive(t)

	rec := ts.do(t, http.MethodGet, "/api/video/100", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Equal(t, media, rec.Body.Bytes())
}

func TestStreamVideo_Range(t *testing.T) {
	media := bytes.Repeat([]byte("0123456789"), 100)
	ts := newTestServer(t, nil)
	ts.seedItem(t, "100", "Ocean", media)
	ts.selectDrive(t)

	rec := ts.do(t, http.MethodGet, "/api/video/100", "", map[string]string{"Range": "bytes=100-199"})
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 100-199/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "100", rec.Header().Get("Content-Length"))
	assert.Equal(t, media[100:200], rec.Body.Bytes())
}

func TestStreamVideo_OpenEndedRange(t *testing.T) {
	media := bytes.Repeat([]byte("0123456789"), 100)
	ts := newTestServer(t, nil)
	ts.seedItem(t, "100", "Ocean", media)
	ts.selectDrive(t)

	rec := ts.do(t, http.MethodGet, "/api/video/100", "", map[string]string{"Range": "bytes=950-"})
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 950-999/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, media[950:], rec.Body.Bytes())
}

func TestStreamVideo_RangeNotSatisfiable(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedItem(t, "100", "Ocean", []byte("short"))
	ts.selectDrive(t)

	rec := ts.do(t, http.MethodGet, "/api/video/100", "", map[string]string{"Range": "bytes=5000-"})
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	// A 416 carries no body.
	assert.Empty(t, rec.Body.Bytes())
}

func TestStreamVideo_UnsupportedRangeForm(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedItem(t, "100", "Ocean", []byte("0123456789"))
	ts.selectDrive(t)

	rec := ts.do(t, http.MethodGet, "/api/video/100", "", map[string]string{"Range": "bytes=-5"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamVideo_UnknownID(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/video/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Wallpaper not found")
}

func TestPreview_NotFound(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedItem(t, "100", "Ocean", []byte("fake video"))
	ts.selectDrive(t)

	// Item has no preview image.
	rec := ts.do(t, http.MethodGet, "/api/preview/100", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/preview/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatus_Endpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.seedItem(t, "100", "Ocean", []byte("fake video"))
	ts.selectDrive(t)

	rec := ts.do(t, http.MethodGet, "/api/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Configured     bool     `json:"configured"`
		WallpaperCount int      `json:"wallpaperCount"`
		Visitors       []string `json:"visitors"`
		ScanID         string   `json:"scanId"`
	}
	decodeBody(t, rec, &payload)
	assert.True(t, payload.Configured)
	assert.Equal(t, 1, payload.WallpaperCount)
	assert.NotEmpty(t, payload.ScanID)
	// The visitor middleware has seen this client already.
	assert.Contains(t, payload.Visitors, "192.168.1.50")
}

func TestScanEndpoints_RateLimited(t *testing.T) {
	ts := newTestServer(t, ratelimit.New(0, 1))
	ts.seedItem(t, "100", "Ocean", []byte("fake video"))

	rec := ts.do(t, http.MethodPost, "/api/select-drive", `{"drive":"D"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// The single burst token is spent; the next trigger is rejected.
	rec = ts.do(t, http.MethodPost, "/api/refresh", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many")
}

func TestVisitors_RecordedOnce(t *testing.T) {
	ts := newTestServer(t, nil)

	for range 3 {
		ts.do(t, http.MethodGet, "/api/config-status", "", nil)
	}

	visitors, err := ts.store.Visitors(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.1.50"}, visitors)
}

package stream

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wallvault/wallvault-server/internal/errors"
)

// writeTestFile creates a file of n sequential bytes and returns its path.
func writeTestFile(t *testing.T, n int) (string, []byte) {
	t.Helper()
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "video.mp4")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, data
}

func TestOpen_NoRange_FullStream(t *testing.T) {
	path, data := writeTestFile(t, 1000)

	st, err := Open(path, "")
	require.NoError(t, err)
	defer st.Body.Close()

	assert.Equal(t, http.StatusOK, st.Status)
	assert.Equal(t, "1000", st.Header.Get("Content-Length"))
	assert.Equal(t, "bytes", st.Header.Get("Accept-Ranges"))
	assert.Equal(t, "video/mp4", st.Header.Get("Content-Type"))
	assert.Empty(t, st.Header.Get("Content-Range"))

	body, err := io.ReadAll(st.Body)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, body), "body must be byte-identical to the file")
}

func TestOpen_RangeWindow(t *testing.T) {
	path, data := writeTestFile(t, 1000)

	st, err := Open(path, "bytes=0-99")
	require.NoError(t, err)
	defer st.Body.Close()

	assert.Equal(t, http.StatusPartialContent, st.Status)
	assert.Equal(t, "bytes 0-99/1000", st.Header.Get("Content-Range"))
	assert.Equal(t, "100", st.Header.Get("Content-Length"))

	body, err := io.ReadAll(st.Body)
	require.NoError(t, err)
	assert.Equal(t, data[:100], body)
}

func TestOpen_RangeMiddle(t *testing.T) {
	path, data := writeTestFile(t, 1000)

	st, err := Open(path, "bytes=250-749")
	require.NoError(t, err)
	defer st.Body.Close()

	assert.Equal(t, "bytes 250-749/1000", st.Header.Get("Content-Range"))

	body, err := io.ReadAll(st.Body)
	require.NoError(t, err)
	assert.Equal(t, data[250:750], body)
}

func TestOpen_OpenEndedRange(t *testing.T) {
	path, data := writeTestFile(t, 1000)

	st, err := Open(path, "bytes=900-")
	require.NoError(t, err)
	defer st.Body.Close()

	assert.Equal(t, http.StatusPartialContent, st.Status)
	assert.Equal(t, "bytes 900-999/1000", st.Header.Get("Content-Range"))
	assert.Equal(t, "100", st.Header.Get("Content-Length"))

	body, err := io.ReadAll(st.Body)
	require.NoError(t, err)
	assert.Equal(t, data[900:], body)
}

func TestOpen_RangeOutOfBounds(t *testing.T) {
	path, _ := writeTestFile(t, 1000)

	tests := []struct {
		name   string
		header string
	}{
		{"start past EOF", "bytes=1000-"},
		{"end past EOF", "bytes=999-1005"},
		{"far past EOF", "bytes=5000-6000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(path, tt.header)
			assert.ErrorIs(t, err, errors.ErrRangeNotSatisfiable)
		})
	}
}

func TestOpen_UnsupportedRangeForms(t *testing.T) {
	path, _ := writeTestFile(t, 1000)

	tests := []struct {
		name   string
		header string
	}{
		{"suffix range", "bytes=-500"},
		{"multi range", "bytes=0-99,200-299"},
		{"wrong unit", "items=0-99"},
		{"garbage", "bytes=abc-def"},
		{"negative start", "bytes=-5-10"},
		{"end before start", "bytes=100-50"},
		{"empty spec", "bytes=-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(path, tt.header)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.mp4"), "")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestOpen_ContentTypeFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.stream")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	st, err := Open(path, "")
	require.NoError(t, err)
	defer st.Body.Close()

	// Unknown extensions fall back to mp4, the dominant workshop format.
	assert.Equal(t, "video/mp4", st.Header.Get("Content-Type"))
}

func TestChunkedReader_CloseIdempotent(t *testing.T) {
	path, _ := writeTestFile(t, 10)

	st, err := Open(path, "")
	require.NoError(t, err)

	require.NoError(t, st.Body.Close())
	assert.NoError(t, st.Body.Close(), "second close must be a no-op")
}

func TestChunkedReader_StopsAtWindowEnd(t *testing.T) {
	path, data := writeTestFile(t, 1000)

	st, err := Open(path, "bytes=10-19")
	require.NoError(t, err)
	defer st.Body.Close()

	// Read with an oversized buffer: the reader must not run past the window.
	buf := make([]byte, 4096)
	n, err := st.Body.Read(buf)
	assert.Equal(t, 10, n)
	assert.Equal(t, data[10:20], buf[:n])
	if err == nil {
		_, err = st.Body.Read(buf)
	}
	assert.ErrorIs(t, err, io.EOF)
}

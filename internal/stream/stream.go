// Package stream serves files with single-range HTTP semantics (a subset of
// RFC 7233): whole-file responses, "bytes=start-" and "bytes=start-end".
// Multi-range and suffix-range forms are rejected as malformed.
package stream

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wallvault/wallvault-server/internal/errors"
)

// chunkSize bounds each read from the underlying file, keeping memory use
// independent of the requested range.
const chunkSize = 1 << 20 // 1 MiB

// Stream is a ready-to-send response: status, headers, and a lazy byte
// source. The caller owns Body and must close it however streaming ends.
type Stream struct {
	Status        int
	Header        http.Header
	Body          io.ReadCloser
	ContentLength int64
}

// Open prepares a stream for the file at path honoring an optional Range
// header. Returns ErrValidation for unsupported range forms and
// ErrRangeNotSatisfiable for out-of-bounds windows.
func Open(path, rangeHeader string) (*Stream, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NotFound("media file not found").WithCause(err)
	}
	fileSize := info.Size()

	header := http.Header{}
	header.Set("Accept-Ranges", "bytes")
	header.Set("Content-Type", contentType(path))

	if rangeHeader == "" {
		f, err := os.Open(path) //#nosec G304 -- path comes from the in-memory catalog
		if err != nil {
			return nil, errors.Internal("open media file").WithCause(err)
		}
		header.Set("Content-Length", strconv.FormatInt(fileSize, 10))
		return &Stream{
			Status:        http.StatusOK,
			Header:        header,
			Body:          &chunkedReader{file: f, remaining: fileSize},
			ContentLength: fileSize,
		}, nil
	}

	start, end, err := parseRange(rangeHeader, fileSize)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //#nosec G304 -- path comes from the in-memory catalog
	if err != nil {
		return nil, errors.Internal("open media file").WithCause(err)
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		f.Close()
		return nil, errors.Internal("seek media file").WithCause(err)
	}

	length := end - start + 1
	header.Set("Content-Length", strconv.FormatInt(length, 10))
	header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))

	return &Stream{
		Status:        http.StatusPartialContent,
		Header:        header,
		Body:          &chunkedReader{file: f, remaining: length},
		ContentLength: length,
	}, nil
}

// parseRange parses "bytes=<start>-" and "bytes=<start>-<end>" into inclusive
// offsets. Anything else (multi-range, suffix form "-N") is a validation
// error; a window touching or past EOF is not satisfiable.
func parseRange(header string, fileSize int64) (start, end int64, err error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(spec, ",") {
		return 0, 0, errors.Validationf("unsupported range %q", header)
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok || startStr == "" {
		return 0, 0, errors.Validationf("unsupported range %q", header)
	}

	start, err = strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return 0, 0, errors.Validationf("unsupported range %q", header)
	}

	end = fileSize - 1
	if endStr = strings.TrimSpace(endStr); endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return 0, 0, errors.Validationf("unsupported range %q", header)
		}
	}

	if start >= fileSize || end >= fileSize {
		return 0, 0, errors.RangeNotSatisfiable(
			fmt.Sprintf("range %d-%d outside file of %d bytes", start, end, fileSize))
	}

	return start, end, nil
}

// contentType guesses the media type from the file extension.
func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "video/mp4"
}

// chunkedReader yields at most `remaining` bytes from the file in reads
// capped at chunkSize. Close releases the handle exactly once.
type chunkedReader struct {
	file      *os.File
	remaining int64
	closed    bool
}

// Read implements io.Reader with a bounded per-call read size.
func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}

	limit := int64(len(p))
	if limit > chunkSize {
		limit = chunkSize
	}
	if limit > r.remaining {
		limit = r.remaining
	}

	n, err := r.file.Read(p[:limit])
	r.remaining -= int64(n)
	if err == nil && r.remaining == 0 {
		err = io.EOF
	}
	return n, err
}

// Close releases the underlying file handle.
func (r *chunkedReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

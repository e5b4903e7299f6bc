package api

import (
	"net"
	"net/http"
	"time"

	"github.com/wallvault/wallvault-server/internal/http/response"
)

// requestLogger logs each request with method, path, status, and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

// WriteHeader records the status code.
func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// recordVisitor persists the client address of every API request.
// Store failures only log; bookkeeping never blocks a request.
func (s *Server) recordVisitor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := clientAddr(r)
		if added, err := s.store.RecordVisitor(r.Context(), addr); err != nil {
			s.logger.Warn("could not record visitor", "addr", addr, "error", err)
		} else if added {
			s.logger.Info("new visitor", "addr", addr)
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitScans rejects scan triggers that exceed the per-client budget.
func (s *Server) rateLimitScans(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientAddr(r)) {
			response.TooManyRequests(w, "Too many scan requests, slow down", s.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientAddr extracts the client IP. RealIP middleware has already replaced
// RemoteAddr when the request carries forwarding headers.
func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

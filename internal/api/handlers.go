package api

import (
	"encoding/json/v2"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wallvault/wallvault-server/internal/drives"
	"github.com/wallvault/wallvault-server/internal/errors"
	"github.com/wallvault/wallvault-server/internal/http/response"
	"github.com/wallvault/wallvault-server/internal/stream"
)

// statusMessage is the success payload of the scan-triggering endpoints.
type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// selectDriveRequest is the POST /api/select-drive body.
type selectDriveRequest struct {
	Drive string `json:"drive" validate:"required"`
}

// updateHistoryRequest is the POST /api/update-history body.
type updateHistoryRequest struct {
	ID                 string   `json:"id" validate:"required"`
	IncrementPlayCount bool     `json:"incrementPlayCount"`
	Progress           *float64 `json:"progress" validate:"omitempty,gte=0"`
}

// handleConfigStatus reports whether a source selection is stored.
// GET /api/config-status
func (s *Server) handleConfigStatus(w http.ResponseWriter, r *http.Request) {
	configured, err := s.library.Configured(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, map[string]bool{"configured": configured}, s.logger)
}

// handleListDrives lists mounted volumes plus the synthetic auto entry.
// GET /api/drives
func (s *Server) handleListDrives(w http.ResponseWriter, _ *http.Request) {
	infos, err := drives.List(s.logger)
	if err != nil {
		s.logger.Error("drive enumeration failed", "error", err)
		response.InternalError(w, "Could not enumerate drives", s.logger)
		return
	}
	infos = append(infos, drives.Info{Letter: "auto"})
	response.Success(w, infos, s.logger)
}

// handleSelectDrive scans the requested source and persists the selection.
// POST /api/select-drive
func (s *Server) handleSelectDrive(w http.ResponseWriter, r *http.Request) {
	var req selectDriveRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		response.BadRequest(w, "drive is required", s.logger)
		return
	}

	if err := s.library.SelectSource(r.Context(), req.Drive); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, statusMessage{
		Status:  "success",
		Message: fmt.Sprintf("Drive %s selected and scanned.", req.Drive),
	}, s.logger)
}

// handleResetConfig clears the stored selection. History and visitors persist.
// POST /api/reset-config
func (s *Server) handleResetConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.library.Reset(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, statusMessage{Status: "success"}, s.logger)
}

// handleStatus returns the latest scan status and visitor list.
// GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.library.Status(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, status, s.logger)
}

// handleRefresh re-runs the scan with the stored selection.
// POST /api/refresh
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.library.Refresh(r.Context()); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, statusMessage{Status: "success", Message: "Library rescanned."}, s.logger)
}

// handleData returns the catalog decorated with play history plus the tag index.
// GET /api/data
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	data, err := s.library.Data(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Success(w, data, s.logger)
}

// handleUpdateHistory applies a play-count increment and/or progress update.
// POST /api/update-history
func (s *Server) handleUpdateHistory(w http.ResponseWriter, r *http.Request) {
	var req updateHistoryRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body", s.logger)
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		response.BadRequest(w, "id is required and progress must be non-negative", s.logger)
		return
	}

	record, err := s.store.ApplyHistory(r.Context(), req.ID, req.IncrementPlayCount, req.Progress)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, map[string]any{
		"status":          "success",
		"updated_history": record,
	}, s.logger)
}

// handleStreamVideo streams a wallpaper's video with HTTP Range support.
// GET /api/video/{id}
func (s *Server) handleStreamVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wp, ok := s.library.Lookup(id)
	if !ok {
		response.NotFound(w, "Wallpaper not found", s.logger)
		return
	}

	st, err := stream.Open(wp.MediaPath, r.Header.Get("Range"))
	if err != nil {
		// 416 carries no body per the range protocol; everything else gets
		// the usual envelope.
		if errors.Is(err, errors.ErrRangeNotSatisfiable) {
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		response.HandleError(w, err, s.logger)
		return
	}
	defer st.Body.Close()

	for key, values := range st.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(st.Status)

	// Headers are committed; a mid-stream failure (usually the client
	// closing the player) just terminates the byte stream.
	if _, err := io.Copy(w, st.Body); err != nil {
		s.logger.Debug("video stream ended early", "id", id, "error", err)
	}
}

// handlePreview serves a wallpaper's preview image.
// GET /api/preview/{id}
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wp, ok := s.library.Lookup(id)
	if !ok || wp.PreviewPath == "" {
		response.NotFound(w, "Preview not found", s.logger)
		return
	}

	http.ServeFile(w, r, wp.PreviewPath)
}

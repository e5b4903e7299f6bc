package service

import (
	"context"

	"github.com/wallvault/wallvault-server/internal/domain"
)

// WallpaperData is a catalog item decorated with its play history.
type WallpaperData struct {
	domain.Wallpaper
	PlayCount int     `json:"playCount"`
	Progress  float64 `json:"progress"`
}

// DataResponse is the /api/data payload.
type DataResponse struct {
	Wallpapers []WallpaperData `json:"wallpapers"`
	Tags       []string        `json:"tags"`
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	domain.Status
	Configured bool     `json:"configured"`
	Visitors   []string `json:"visitors"`
}

// Data returns the current catalog decorated with history records.
func (s *LibraryService) Data(ctx context.Context) (*DataResponse, error) {
	snapshot := s.library.Current()

	wallpapers := make([]WallpaperData, 0, len(snapshot.Wallpapers))
	for _, wp := range snapshot.Wallpapers {
		history, err := s.store.GetHistory(ctx, wp.ID)
		if err != nil {
			return nil, err
		}
		wallpapers = append(wallpapers, WallpaperData{
			Wallpaper: wp,
			PlayCount: history.PlayCount,
			Progress:  history.Progress,
		})
	}

	return &DataResponse{Wallpapers: wallpapers, Tags: snapshot.Tags}, nil
}

// Status returns the most recent scan status plus the visitor list.
func (s *LibraryService) Status(ctx context.Context) (*StatusResponse, error) {
	visitors, err := s.store.Visitors(ctx)
	if err != nil {
		return nil, err
	}
	configured, err := s.Configured(ctx)
	if err != nil {
		return nil, err
	}

	return &StatusResponse{
		Status:     s.library.Status(),
		Configured: configured,
		Visitors:   visitors,
	}, nil
}

package domain

import "time"

// Status is the ephemeral snapshot of the most recent scan attempt.
// It is recomputed on every scan and never persisted.
type Status struct {
	ScanID         string    `json:"scanId,omitempty"`
	ContentRoot    string    `json:"contentRoot,omitempty"`
	WallpaperCount int       `json:"wallpaperCount"`
	SkippedCount   int       `json:"skippedCount"`
	LastRefresh    time.Time `json:"lastRefresh"`
	LocalURL       string    `json:"localUrl,omitempty"`
	LanURL         string    `json:"lanUrl,omitempty"`
}

// Package domain contains the core entities for the WallVault media library.
package domain

import (
	"slices"
	"time"
)

// Wallpaper represents one discovered workshop video item.
// The ID is the item's workshop directory name and is unique within a catalog.
type Wallpaper struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	MediaPath   string      `json:"-"`
	PreviewPath string      `json:"-"`
	Tags        []string    `json:"tags"`
	Rating      RatingClass `json:"rating"`
	BlurHash    string      `json:"blurhash,omitempty"`
	ModTime     int64       `json:"mtime"`
	Date        string      `json:"date"`
}

// NewWallpaper builds a Wallpaper from descriptor fields and the media file's
// modification time. Tags are stored sorted regardless of descriptor order.
// Date is the calendar-day projection of mtime.
func NewWallpaper(id, title, mediaPath string, tags []string, rating RatingClass, modTime time.Time) Wallpaper {
	if title == "" {
		title = "Untitled"
	}
	if tags == nil {
		tags = []string{}
	}
	slices.Sort(tags)
	return Wallpaper{
		ID:        id,
		Title:     title,
		MediaPath: mediaPath,
		Tags:      tags,
		Rating:    rating,
		ModTime:   modTime.Unix(),
		Date:      modTime.Format("2006-01-02"),
	}
}

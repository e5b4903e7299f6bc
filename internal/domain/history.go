package domain

// HistoryRecord tracks playback bookkeeping for a single wallpaper id.
// Records outlive catalog rescans: an id removed from disk keeps its history.
type HistoryRecord struct {
	PlayCount int     `json:"playCount"`
	Progress  float64 `json:"progress"`
}

// Merge folds an update into the record. PlayCount increments by one when
// increment is set. Progress is monotonic: a smaller value is a no-op.
func (h HistoryRecord) Merge(increment bool, progress *float64) HistoryRecord {
	if increment {
		h.PlayCount++
	}
	if progress != nil && *progress > h.Progress {
		h.Progress = *progress
	}
	return h
}

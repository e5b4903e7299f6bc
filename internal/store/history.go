package store

import (
	"context"
	"encoding/json/v2"
	"fmt"

	"github.com/wallvault/wallvault-server/internal/domain"
)

const historyPrefix = "history:"

// GetHistory returns the history record for a wallpaper id, defaulting to a
// zero record when none exists. Never mutates.
func (s *Store) GetHistory(ctx context.Context, id string) (domain.HistoryRecord, error) {
	var record domain.HistoryRecord
	_, err := s.get(ctx, historyPrefix+id, func(val []byte) error {
		return json.Unmarshal(val, &record)
	})
	if err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("get history %s: %w", id, err)
	}
	return record, nil
}

// IncrementPlayCount increments the play count for an id by exactly one,
// creating a zero record first when absent.
func (s *Store) IncrementPlayCount(ctx context.Context, id string) (domain.HistoryRecord, error) {
	return s.ApplyHistory(ctx, id, true, nil)
}

// UpdateProgress stores max(existing, value) for an id; a smaller value is a
// no-op for the progress field.
func (s *Store) UpdateProgress(ctx context.Context, id string, value float64) (domain.HistoryRecord, error) {
	return s.ApplyHistory(ctx, id, false, &value)
}

// ApplyHistory folds an update into the record for id under the store mutex
// and persists the merged result.
func (s *Store) ApplyHistory(ctx context.Context, id string, increment bool, progress *float64) (domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.GetHistory(ctx, id)
	if err != nil {
		return domain.HistoryRecord{}, err
	}

	record = record.Merge(increment, progress)

	data, err := json.Marshal(record)
	if err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("marshal history %s: %w", id, err)
	}
	if err := s.set(ctx, historyPrefix+id, data); err != nil {
		return domain.HistoryRecord{}, fmt.Errorf("set history %s: %w", id, err)
	}
	return record, nil
}

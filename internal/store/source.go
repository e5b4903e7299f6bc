package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
)

const keySourceSelection = "config:source"

// SourceAuto is the sentinel selection that resolves via auto-detect at scan time.
const SourceAuto = "auto"

// GetSourceSelection returns the persisted source selection, or "" when unset.
func (s *Store) GetSourceSelection(ctx context.Context) (string, error) {
	var selection string
	_, err := s.get(ctx, keySourceSelection, func(val []byte) error {
		return json.Unmarshal(val, &selection)
	})
	if err != nil {
		return "", fmt.Errorf("get source selection: %w", err)
	}
	return selection, nil
}

// SetSourceSelection persists the source selection.
func (s *Store) SetSourceSelection(ctx context.Context, value string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal source selection: %w", err)
	}
	if err := s.set(ctx, keySourceSelection, data); err != nil {
		return fmt.Errorf("set source selection: %w", err)
	}
	return nil
}

// ClearSourceSelection removes the persisted selection. History and visitors
// are untouched.
func (s *Store) ClearSourceSelection(ctx context.Context) error {
	if err := s.delete(ctx, keySourceSelection); err != nil {
		return fmt.Errorf("clear source selection: %w", err)
	}
	return nil
}

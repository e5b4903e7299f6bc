package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"slices"
)

const keyVisitors = "visitors"

// Visitors returns the persisted visitor addresses, sorted ascending.
func (s *Store) Visitors(ctx context.Context) ([]string, error) {
	visitors := []string{}
	_, err := s.get(ctx, keyVisitors, func(val []byte) error {
		return json.Unmarshal(val, &visitors)
	})
	if err != nil {
		return nil, fmt.Errorf("get visitors: %w", err)
	}
	return visitors, nil
}

// RecordVisitor adds a client address to the visitor set. Idempotent: an
// address already present triggers no write. Reports whether the set changed.
func (s *Store) RecordVisitor(ctx context.Context, address string) (bool, error) {
	if address == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	visitors, err := s.Visitors(ctx)
	if err != nil {
		return false, err
	}

	i, found := slices.BinarySearch(visitors, address)
	if found {
		return false, nil
	}
	visitors = slices.Insert(visitors, i, address)

	data, err := json.Marshal(visitors)
	if err != nil {
		return false, fmt.Errorf("marshal visitors: %w", err)
	}
	if err := s.set(ctx, keyVisitors, data); err != nil {
		return false, fmt.Errorf("set visitors: %w", err)
	}
	return true, nil
}

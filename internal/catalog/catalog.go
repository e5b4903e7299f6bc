// Package catalog holds the in-memory wallpaper catalog as immutable
// snapshots published by atomic pointer swap, so in-flight readers never
// observe a half-built catalog.
package catalog

import (
	"sort"
	"sync/atomic"

	"github.com/wallvault/wallvault-server/internal/domain"
)

// Snapshot is one complete, immutable scan result: the wallpapers in
// directory-iteration order plus the sorted union of their tags.
type Snapshot struct {
	Wallpapers []domain.Wallpaper
	Tags       []string

	byID map[string]int
}

// NewSnapshot builds a snapshot from scanned wallpapers, deriving the tag
// index and the id lookup table.
func NewSnapshot(wallpapers []domain.Wallpaper) *Snapshot {
	if wallpapers == nil {
		wallpapers = []domain.Wallpaper{}
	}

	tagSet := make(map[string]struct{})
	byID := make(map[string]int, len(wallpapers))
	for i, wp := range wallpapers {
		byID[wp.ID] = i
		for _, tag := range wp.Tags {
			tagSet[tag] = struct{}{}
		}
	}

	tags := make([]string, 0, len(tagSet))
	for tag := range tagSet {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	return &Snapshot{Wallpapers: wallpapers, Tags: tags, byID: byID}
}

// EmptySnapshot returns a snapshot with no wallpapers.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil)
}

// Lookup returns the wallpaper with the given id.
func (s *Snapshot) Lookup(id string) (domain.Wallpaper, bool) {
	i, ok := s.byID[id]
	if !ok {
		return domain.Wallpaper{}, false
	}
	return s.Wallpapers[i], true
}

// Library is the shared holder of the current snapshot and the status of the
// most recent scan attempt. Writers replace wholesale; readers are lock-free.
type Library struct {
	snapshot atomic.Pointer[Snapshot]
	status   atomic.Pointer[domain.Status]
}

// NewLibrary creates a library starting from an empty snapshot.
func NewLibrary() *Library {
	l := &Library{}
	l.snapshot.Store(EmptySnapshot())
	l.status.Store(&domain.Status{})
	return l
}

// Current returns the published snapshot.
func (l *Library) Current() *Snapshot {
	return l.snapshot.Load()
}

// Replace publishes a new snapshot, discarding the previous one entirely.
func (l *Library) Replace(s *Snapshot) {
	if s == nil {
		s = EmptySnapshot()
	}
	l.snapshot.Store(s)
}

// Status returns the status of the most recent scan attempt.
func (l *Library) Status() domain.Status {
	return *l.status.Load()
}

// SetStatus records the status of a scan attempt.
func (l *Library) SetStatus(status domain.Status) {
	l.status.Store(&status)
}

// Package memory provides an in-memory audit trail for tests and for
// deployments that run without durable audit storage.
package memory

import (
	"context"
	"sort"
	"sync"

	"tierboard/internal/audit"
	"tierboard/pkg/requestcontext"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Store keeps the full trail in memory. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *Store) List(_ context.Context, f audit.Filter, page, limit int) ([]audit.Event, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	s.mu.RLock()
	matched := make([]audit.Event, 0, len(s.events))
	for _, e := range s.events {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	// Newest first; equal timestamps break on ID for a stable order.
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []audit.Event{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) Actors(_ context.Context) ([]string, error) {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, e := range s.events {
		seen[e.Actor] = struct{}{}
	}
	s.mu.RUnlock()

	actors := make([]string, 0, len(seen))
	for a := range seen {
		actors = append(actors, a)
	}
	sort.Strings(actors)
	return actors, nil
}

func (s *Store) Stats(ctx context.Context) (audit.Stats, error) {
	s.mu.RLock()
	events := make([]audit.Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()
	return audit.StatsFromEvents(requestcontext.Now(ctx), events), nil
}

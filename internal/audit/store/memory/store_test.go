package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierboard/internal/audit"
)

func seed(t *testing.T, s *Store, events ...audit.Event) {
	t.Helper()
	for i := range events {
		if events[i].ID == uuid.Nil {
			events[i].ID = uuid.New()
		}
		require.NoError(t, s.Append(context.Background(), events[i]))
	}
}

func TestListNewestFirst(t *testing.T) {
	s := New()
	base := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	seed(t, s,
		audit.Event{Timestamp: base, Actor: "a", Action: audit.ActionAssign},
		audit.Event{Timestamp: base.Add(2 * time.Hour), Actor: "b", Action: audit.ActionAward},
		audit.Event{Timestamp: base.Add(time.Hour), Actor: "c", Action: audit.ActionNotes},
	)

	got, total, err := s.List(context.Background(), audit.Filter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, got, 3)
	assert.Equal(t, audit.ActionAward, got[0].Action)
	assert.Equal(t, audit.ActionNotes, got[1].Action)
	assert.Equal(t, audit.ActionAssign, got[2].Action)
}

func TestListFilterAndPagination(t *testing.T) {
	s := New()
	base := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seed(t, s, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Actor:     "jdoe",
			Action:    audit.ActionComplete,
		})
	}
	seed(t, s, audit.Event{Timestamp: base, Actor: "other", Action: audit.ActionAward})

	got, total, err := s.List(context.Background(), audit.Filter{Actor: "jdoe"}, 2, 2)
	require.NoError(t, err)

	// Total reflects all matches, not the returned page.
	assert.Equal(t, int64(5), total)
	assert.Len(t, got, 2)
	for _, e := range got {
		assert.Equal(t, "jdoe", e.Actor)
	}

	empty, total, err := s.List(context.Background(), audit.Filter{Actor: "jdoe"}, 9, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, empty)
}

func TestActorsDistinctSorted(t *testing.T) {
	s := New()
	ts := time.Now()
	seed(t, s,
		audit.Event{Timestamp: ts, Actor: "zara", Action: audit.ActionNotes},
		audit.Event{Timestamp: ts, Actor: "amir", Action: audit.ActionNotes},
		audit.Event{Timestamp: ts, Actor: "zara", Action: audit.ActionAward},
	)

	actors, err := s.Actors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"amir", "zara"}, actors)
}

func TestStatsCountsActions(t *testing.T) {
	s := New()
	ts := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	seed(t, s,
		audit.Event{Timestamp: ts, Actor: "a", Action: audit.ActionApprove},
		audit.Event{Timestamp: ts, Actor: "a", Action: audit.ActionApprove},
		audit.Event{Timestamp: ts, Actor: "b", Action: audit.ActionReject},
	)

	stats, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ActionCounts[audit.ActionApprove])
	assert.Equal(t, int64(1), stats.ActionCounts[audit.ActionReject])
}

package audit

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierboard/pkg/requestcontext"
)

type captureTrail struct {
	events []Event
	err    error
}

func (c *captureTrail) Append(_ context.Context, e Event) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, e)
	return nil
}

func (c *captureTrail) List(context.Context, Filter, int, int) ([]Event, int64, error) {
	return nil, 0, nil
}
func (c *captureTrail) Actors(context.Context) ([]string, error) { return nil, nil }
func (c *captureTrail) Stats(context.Context) (Stats, error)     { return Stats{}, nil }

func TestWriterDefaultsFromContext(t *testing.T) {
	trail := &captureTrail{}
	w := NewWriter(trail, WithLogger(slog.Default()))

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithActor(ctx, "msmith")
	ctx = requestcontext.WithClientMetadata(ctx, "10.1.2.3", "firefox")

	w.Record(ctx, Event{Action: ActionAward, RecordID: 7})

	require.Len(t, trail.events, 1)
	got := trail.events[0]
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, fixed, got.Timestamp)
	assert.Equal(t, "msmith", got.Actor)
	assert.Equal(t, "10.1.2.3", got.SourceAddress)
	assert.Equal(t, "firefox", got.UserAgent)
	assert.Equal(t, ActionAward, got.Action)
}

func TestWriterKeepsCallerValues(t *testing.T) {
	trail := &captureTrail{}
	w := NewWriter(trail)

	id := uuid.New()
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithClientMetadata(context.Background(), "10.0.0.1", "curl")
	w.Record(ctx, Event{
		ID: id, Timestamp: ts, Actor: "importer", Action: ActionAssign,
		UserAgent: "batch-import/2.1",
	})

	require.Len(t, trail.events, 1)
	assert.Equal(t, id, trail.events[0].ID)
	assert.Equal(t, ts, trail.events[0].Timestamp)
	assert.Equal(t, "importer", trail.events[0].Actor)
	assert.Equal(t, "batch-import/2.1", trail.events[0].UserAgent)
}

func TestWriterAnonymousActor(t *testing.T) {
	trail := &captureTrail{}
	NewWriter(trail).Record(context.Background(), Event{Action: ActionNotes})

	require.Len(t, trail.events, 1)
	assert.Equal(t, requestcontext.DefaultActor, trail.events[0].Actor)
}

func TestWriterSwallowsAppendFailure(t *testing.T) {
	trail := &captureTrail{err: errors.New("backend down")}
	w := NewWriter(trail)

	// Must not panic or propagate; the mutation already committed.
	w.Record(context.Background(), Event{Action: ActionApprove, RecordID: 3})
	assert.Empty(t, trail.events)
}

func TestWriterNilTrail(t *testing.T) {
	var w *Writer
	w.Record(context.Background(), Event{Action: ActionReject})

	NewWriter(nil).Record(context.Background(), Event{Action: ActionReject})
}

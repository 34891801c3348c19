package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tierboard/internal/audit/metrics"
	"tierboard/pkg/requestcontext"
)

// Writer fills event defaults from the request context and appends to the
// trail. Append failures are logged and counted but never surfaced: the
// mutation that produced the event has already committed, and the trail is
// advisory.
type Writer struct {
	trail   Trail
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type WriterOption func(w *Writer)

func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) WriterOption {
	return func(w *Writer) {
		w.metrics = m
	}
}

// NewWriter constructs a Writer over the given trail.
func NewWriter(trail Trail, opts ...WriterOption) *Writer {
	w := &Writer{trail: trail, logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Record appends one event, defaulting ID, Timestamp, Actor, SourceAddress
// and UserAgent from the context when the caller left them unset.
func (w *Writer) Record(ctx context.Context, e Event) {
	if w == nil || w.trail == nil {
		return
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx).UTC().Truncate(time.Millisecond)
	}
	if e.Actor == "" {
		e.Actor = requestcontext.Actor(ctx)
	}
	if e.SourceAddress == "" {
		e.SourceAddress = requestcontext.ClientIP(ctx)
	}
	if e.UserAgent == "" {
		e.UserAgent = requestcontext.UserAgent(ctx)
	}

	if err := w.trail.Append(ctx, e); err != nil {
		w.metrics.IncrementFailure()
		w.logger.Error("audit append failed, event dropped",
			"action", string(e.Action),
			"record_id", e.RecordID,
			"actor", e.Actor,
			"error", err)
		return
	}
	w.metrics.IncrementAppended(string(e.Action))
}

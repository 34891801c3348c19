// Package testutil provides common test utilities for service and handler tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"tierboard/pkg/requestcontext"
)

// Context returns a request-like context with a fixed actor and time, the
// typical state a service method sees after the middleware chain has run.
func Context(t *testing.T, actor string, at time.Time) context.Context {
	t.Helper()
	ctx := requestcontext.WithActor(context.Background(), actor)
	ctx = requestcontext.WithRequestID(ctx, "test-request")
	return requestcontext.WithTime(ctx, at)
}

// Date builds a UTC midnight timestamp; most progression rules operate on
// plain dates, so tests read better without time-of-day noise.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

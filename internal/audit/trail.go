package audit

import "context"

// Trail is the audit storage contract. Backends differ in how they persist
// and query, but all expose the same reverse-chronological listing and the
// same aggregate views.
type Trail interface {
	// Append persists one event. The event is immutable once written.
	Append(ctx context.Context, e Event) error

	// List returns events matching the filter, newest first, paginated.
	// The second return is the total match count before pagination.
	List(ctx context.Context, f Filter, page, limit int) ([]Event, int64, error)

	// Actors returns the distinct actor identities seen in the trail.
	Actors(ctx context.Context) ([]string, error)

	// Stats aggregates recent activity anchored at the request clock.
	Stats(ctx context.Context) (Stats, error)
}

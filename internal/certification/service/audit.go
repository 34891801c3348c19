package service

import (
	"context"

	"tierboard/internal/audit"
)

// GetAuditLog lists audit events newest first, filtered and paginated, with
// the total match count.
func (s *Service) GetAuditLog(ctx context.Context, f audit.Filter, page, limit int) ([]audit.Event, int64, error) {
	events, total, err := s.trail.List(ctx, f, page, limit)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return events, total, nil
}

// GetAuditActors returns the distinct actor identities seen in the trail.
func (s *Service) GetAuditActors(ctx context.Context) ([]string, error) {
	actors, err := s.trail.Actors(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return actors, nil
}

// GetAuditStats aggregates trail activity for the dashboard.
func (s *Service) GetAuditStats(ctx context.Context) (audit.Stats, error) {
	stats, err := s.trail.Stats(ctx)
	if err != nil {
		return audit.Stats{}, storageErr(err)
	}
	return stats, nil
}

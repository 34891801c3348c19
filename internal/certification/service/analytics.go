package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"tierboard/internal/audit"
	"tierboard/internal/certification/analytics"
	"tierboard/internal/certification/models"
	"tierboard/internal/certification/resolve"
	"tierboard/internal/certification/store"
	"tierboard/pkg/requestcontext"
)

// Overview bundles every dashboard view computed from one snapshot, so the
// sections can never disagree about the underlying rows.
type Overview struct {
	TierCounts []analytics.TierCount
	Facilities analytics.Rankings
	Areas      analytics.Rankings
	Trends     []analytics.MonthBucket
	Summary    analytics.Summary
}

const rankingSize = 5

// GetDashboardSummary computes the scalar dashboard metrics over the whole
// record set.
func (s *Service) GetDashboardSummary(ctx context.Context) (analytics.Summary, error) {
	now := requestcontext.Now(ctx).UTC()
	if v, ok := s.cacheGet("summary", now); ok {
		return v.(analytics.Summary), nil
	}

	all, err := s.snapshot(ctx, store.FindParams{})
	if err != nil {
		return analytics.Summary{}, err
	}
	canonical := resolve.Resolve(all, resolve.KeyByEmployeeTier)
	summary := s.engine.Summarize(canonical, all, now)

	s.cachePut("summary", summary, now)
	return summary, nil
}

// GetAnalyticsOverview computes every dashboard section from one snapshot.
// Sections are independent scans, so they run concurrently; any failure fails
// the whole overview rather than returning a partial payload.
func (s *Service) GetAnalyticsOverview(ctx context.Context, params store.FindParams) (Overview, error) {
	if err := validateParams(params); err != nil {
		return Overview{}, err
	}
	now := requestcontext.Now(ctx).UTC()
	cacheKey := "overview|" + params.CacheKey()
	if v, ok := s.cacheGet(cacheKey, now); ok {
		return v.(Overview), nil
	}

	all, err := s.snapshot(ctx, params)
	if err != nil {
		return Overview{}, err
	}
	canonical := resolve.Resolve(all, resolve.KeyByEmployeeTier)

	var out Overview
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.TierCounts = s.engine.TierCounts(canonical, all, now)
		return nil
	})
	g.Go(func() error {
		out.Facilities = analytics.TopBottom(s.engine.FacilityPerformance(canonical), rankingSize)
		return nil
	})
	g.Go(func() error {
		out.Areas = analytics.TopBottom(s.engine.AreaPerformance(canonical), rankingSize)
		return nil
	})
	g.Go(func() error {
		out.Trends = s.engine.MonthlyTrends(canonical, now)
		return nil
	})
	g.Go(func() error {
		out.Summary = s.engine.Summarize(canonical, all, now)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	s.cachePut(cacheKey, out, now)
	return out, nil
}

// GetFacilityPerformance ranks facilities by score, best first.
func (s *Service) GetFacilityPerformance(ctx context.Context, params store.FindParams) ([]analytics.GroupStats, error) {
	return s.groupPerformance(ctx, params, "facility", s.engine.FacilityPerformance)
}

// GetAreaPerformance ranks areas by score, best first.
func (s *Service) GetAreaPerformance(ctx context.Context, params store.FindParams) ([]analytics.GroupStats, error) {
	return s.groupPerformance(ctx, params, "area", s.engine.AreaPerformance)
}

func (s *Service) groupPerformance(ctx context.Context, params store.FindParams, kind string, compute func([]models.Record) []analytics.GroupStats) ([]analytics.GroupStats, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx).UTC()
	cacheKey := kind + "|" + params.CacheKey()
	if v, ok := s.cacheGet(cacheKey, now); ok {
		return v.([]analytics.GroupStats), nil
	}

	all, err := s.snapshot(ctx, params)
	if err != nil {
		return nil, err
	}
	stats := compute(resolve.Resolve(all, resolve.KeyByEmployeeTier))

	s.cachePut(cacheKey, stats, now)
	return stats, nil
}

// GetMonthlyTrends buckets awards and assignment starts over the trailing six
// calendar months.
func (s *Service) GetMonthlyTrends(ctx context.Context, params store.FindParams) ([]analytics.MonthBucket, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	all, err := s.snapshot(ctx, params)
	if err != nil {
		return nil, err
	}
	canonical := resolve.Resolve(all, resolve.KeyByEmployeeTier)
	return s.engine.MonthlyTrends(canonical, requestcontext.Now(ctx).UTC()), nil
}

// GetCertificationProgress returns the per-tier completed / in-progress /
// pending / overdue breakdown.
func (s *Service) GetCertificationProgress(ctx context.Context, params store.FindParams) ([]analytics.TierCount, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	all, err := s.snapshot(ctx, params)
	if err != nil {
		return nil, err
	}
	canonical := resolve.Resolve(all, resolve.KeyByEmployeeTier)
	return s.engine.TierCounts(canonical, all, requestcontext.Now(ctx).UTC()), nil
}

// GetRecentActivity returns the newest audit events.
func (s *Service) GetRecentActivity(ctx context.Context, limit int) ([]audit.Event, error) {
	events, _, err := s.trail.List(ctx, audit.Filter{}, 1, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	return events, nil
}

func (s *Service) cacheGet(key string, now time.Time) (any, bool) {
	v, ok := s.cache.Get(key, now)
	if ok {
		s.metrics.IncrementCacheLookup("hit")
	} else {
		s.metrics.IncrementCacheLookup("miss")
	}
	return v, ok
}

func (s *Service) cachePut(key string, value any, now time.Time) {
	s.cache.Put(key, value, now)
}

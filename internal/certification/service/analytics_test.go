package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierboard/internal/audit"
	auditmemory "tierboard/internal/audit/store/memory"
	"tierboard/internal/certification/analytics"
	"tierboard/internal/certification/models"
	"tierboard/internal/certification/store"
	"tierboard/pkg/requestcontext"
)

func TestGetAnalyticsOverview(t *testing.T) {
	f := newFixture(t)
	now := date(2024, 6, 15)
	ctx := requestcontext.WithTime(context.Background(), now)

	rec := f.assign(t, ctx, "E1", models.Tier1)
	require.NoError(t, f.svc.CompleteArtifact(ctx, rec.ID, string(models.ArtifactOrientationSession), date(2024, 6, 1)))
	require.NoError(t, f.svc.CompleteArtifact(ctx, rec.ID, string(models.ArtifactSafetyVideo), date(2024, 6, 2)))
	require.NoError(t, f.svc.CompleteConference(ctx, rec.ID, date(2024, 6, 3)))
	require.NoError(t, f.svc.ApproveConference(ctx, rec.ID))
	require.NoError(t, f.svc.AwardTier(ctx, rec.ID))
	f.assign(t, ctx, "E2", models.Tier1)

	overview, err := f.svc.GetAnalyticsOverview(ctx, store.FindParams{})
	require.NoError(t, err)

	require.Len(t, overview.TierCounts, len(models.AllTiers))
	assert.Equal(t, 1, overview.TierCounts[0].Completed)

	require.NotEmpty(t, overview.Facilities.Top)
	assert.Equal(t, "North", overview.Facilities.Top[0].Name)

	require.Len(t, overview.Trends, 6)
	assert.Equal(t, "2024-06", overview.Trends[5].Month)
	assert.Equal(t, 1, overview.Trends[5].Completions)
	assert.Equal(t, 2, overview.Trends[5].Starts)

	assert.Equal(t, 1, overview.Summary.RecentCompletions)
}

func TestAnalyticsCache(t *testing.T) {
	mem := store.NewMemory()
	trail := auditmemory.New()
	svc := New(mem, mem, trail, audit.NewWriter(trail),
		WithCache(analytics.NewResultCache(time.Minute)))

	now := date(2024, 6, 15)
	ctx := requestcontext.WithTime(context.Background(), now)

	first, err := svc.GetDashboardSummary(ctx)
	require.NoError(t, err)

	// A write inside the TTL is invisible to the cached summary.
	_, err = svc.AssignTier(ctx, AssignParams{EmployeeNumber: "E1", Tier: models.Tier1, Name: "N"})
	require.NoError(t, err)
	cached, err := svc.GetDashboardSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	// After the TTL the summary is recomputed.
	later := requestcontext.WithTime(context.Background(), now.Add(2*time.Minute))
	refreshed, err := svc.GetDashboardSummary(later)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed.ActiveSessions)
}

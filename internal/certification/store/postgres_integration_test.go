//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierboard/internal/certification/models"
	"tierboard/pkg/sentinel"
	"tierboard/pkg/testutil/containers"
)

func newPostgresStore(t *testing.T) *Postgres {
	t.Helper()
	pc := containers.NewPostgresContainer(t)
	s := NewPostgres(pc.Pool)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func TestPostgresRoundTrip(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()

	rec, err := s.Insert(ctx, models.Record{
		EmployeeNumber: "3001",
		Tier:           models.Tier2,
		Name:           "Gil Gray",
		Facility:       "North",
		Area:           "NICU",
		JobTitle:       "RN",
		AssignedDate:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Approval:       models.ApprovalAwaiting,
	})
	require.NoError(t, err)
	require.NotZero(t, rec.ID)

	t.Run("get by id decodes the tri-state and artifact columns", func(t *testing.T) {
		require.NoError(t, s.Mutate(ctx, rec.ID, models.FieldSet{
			models.Field("standing_video_completed"): time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
			models.FieldAwaitingApproval:             models.ApprovalApproved,
		}))

		got, err := s.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalApproved, got.Approval)
		assert.False(t, got.CompletedDate(models.ArtifactStandingVideo).IsZero())
	})

	t.Run("rejected conference round-trips as NULL", func(t *testing.T) {
		require.NoError(t, s.Mutate(ctx, rec.ID, models.FieldSet{
			models.FieldAwaitingApproval: models.ApprovalRejected,
		}))
		got, err := s.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalRejected, got.Approval)
	})

	t.Run("mutate with out-of-list field fails before writing", func(t *testing.T) {
		err := s.Mutate(ctx, rec.ID, models.FieldSet{
			models.Field("coach_seminar_completed"): time.Now(), // tier5 artifact on a tier2 row
		})
		require.Error(t, err)
	})

	t.Run("missing row maps to sentinel", func(t *testing.T) {
		_, err := s.GetByID(ctx, 99999)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestPostgresQueryFilters(t *testing.T) {
	s := newPostgresStore(t)
	ctx := context.Background()

	seed := []models.Record{
		{EmployeeNumber: "4001", Tier: models.Tier1, Name: "Ada", Facility: "North", Area: "ICU"},
		{EmployeeNumber: "4002", Tier: models.Tier2, Name: "Ben", Facility: "South", Area: "NICU"},
		{EmployeeNumber: "4003", Tier: models.Tier2, Name: "Cam", Facility: "North", Area: "NICU"},
	}
	for _, r := range seed {
		_, err := s.Insert(ctx, r)
		require.NoError(t, err)
	}

	tier := models.Tier2
	got, total, err := s.Query(ctx, FindParams{Tier: &tier, Facilities: []string{"North"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "4003", got[0].EmployeeNumber)

	_, total, err = s.Query(ctx, FindParams{Query: "400"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

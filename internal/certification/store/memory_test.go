package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierboard/internal/certification/models"
	"tierboard/pkg/sentinel"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(t *testing.T, m *Memory) []models.Record {
	t.Helper()
	ctx := context.Background()

	fixtures := []models.Record{
		{EmployeeNumber: "1001", Tier: models.Tier1, Name: "Ada Allen", Facility: "North", Area: "ICU", JobTitle: "RN", AssignedDate: date(2024, 1, 5)},
		{EmployeeNumber: "1002", Tier: models.Tier2, Name: "Ben Brook", Facility: "South", Area: "NICU", JobTitle: "RN", AssignedDate: date(2024, 2, 1)},
		{EmployeeNumber: "1003", Tier: models.Tier2, Name: "Cam Cole", Facility: "North", Area: "NICU", JobTitle: "LPN", AssignedDate: date(2024, 2, 10),
			ConferenceCompletedDate: date(2024, 3, 1), Approval: models.ApprovalApproved},
	}
	out := make([]models.Record, 0, len(fixtures))
	for _, f := range fixtures {
		rec, err := m.Insert(ctx, f)
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func TestMemoryQueryFilters(t *testing.T) {
	m := NewMemory()
	seed(t, m)
	ctx := context.Background()

	t.Run("tier filter", func(t *testing.T) {
		tier := models.Tier2
		got, total, err := m.Query(ctx, FindParams{Tier: &tier})
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, got, 2)
	})

	t.Run("facility list filter", func(t *testing.T) {
		got, total, err := m.Query(ctx, FindParams{Facilities: []string{"South"}})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, got, 1)
		assert.Equal(t, "1002", got[0].EmployeeNumber)
	})

	t.Run("free text matches employee number", func(t *testing.T) {
		_, total, err := m.Query(ctx, FindParams{Query: "1003"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("status predicate in_progress", func(t *testing.T) {
		got, _, err := m.Query(ctx, FindParams{Status: StatusFilterInProgress})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "1003", got[0].EmployeeNumber)
	})

	t.Run("exact date filter on allow-listed column", func(t *testing.T) {
		_, total, err := m.Query(ctx, FindParams{DateField: "assigned_date", DateValue: date(2024, 2, 1)})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("default sort is area then name", func(t *testing.T) {
		got, _, err := m.Query(ctx, FindParams{SortBy: "definitely-not-a-key"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "Ada Allen", got[0].Name) // ICU before NICU
		assert.Equal(t, "Ben Brook", got[1].Name)
		assert.Equal(t, "Cam Cole", got[2].Name)
	})
}

func TestMemoryPagination(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		_, err := m.Insert(ctx, models.Record{
			EmployeeNumber: string(rune('A' + i)),
			Tier:           models.Tier1,
			Name:           "Emp",
		})
		require.NoError(t, err)
	}

	page1, total, err := m.Query(ctx, FindParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Len(t, page1, 10)

	page3, total, err := m.Query(ctx, FindParams{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total, "total is independent of the requested page")
	assert.Len(t, page3, 5)

	beyond, total, err := m.Query(ctx, FindParams{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Empty(t, beyond)
}

func TestMemoryMutate(t *testing.T) {
	m := NewMemory()
	recs := seed(t, m)
	ctx := context.Background()

	t.Run("applies allow-listed fields", func(t *testing.T) {
		tier2 := recs[1]
		fields := models.FieldSet{
			models.FieldNotes: "ready for review",
			models.Field("standing_video_completed"): date(2024, 3, 10),
		}
		require.NoError(t, m.Mutate(ctx, tier2.ID, fields))

		got, err := m.GetByID(ctx, tier2.ID)
		require.NoError(t, err)
		assert.Equal(t, "ready for review", got.Notes)
		assert.Equal(t, date(2024, 3, 10), got.CompletedDate(models.ArtifactStandingVideo))
	})

	t.Run("rejects fields outside the tier allow-list", func(t *testing.T) {
		tier1 := recs[0]
		err := m.Mutate(ctx, tier1.ID, models.FieldSet{
			models.Field("standing_video_completed"): date(2024, 3, 10), // tier2 artifact
		})
		assert.ErrorIs(t, err, sentinel.ErrInvalidField)
	})

	t.Run("rejects arbitrary column names", func(t *testing.T) {
		err := m.Mutate(ctx, recs[0].ID, models.FieldSet{
			models.Field("notes; DROP TABLE certification_records"): "x",
		})
		assert.ErrorIs(t, err, sentinel.ErrInvalidField)
	})

	t.Run("missing record", func(t *testing.T) {
		err := m.Mutate(ctx, 9999, models.FieldSet{models.FieldNotes: "x"})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("nil clears a nullable field", func(t *testing.T) {
		rec := recs[2]
		require.NoError(t, m.Mutate(ctx, rec.ID, models.FieldSet{
			models.Field("standing_video_completed"): date(2024, 3, 1),
		}))
		require.NoError(t, m.Mutate(ctx, rec.ID, models.FieldSet{
			models.Field("standing_video_completed"): nil,
		}))
		got, err := m.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, got.CompletedDate(models.ArtifactStandingVideo).IsZero())
	})
}

func TestMemoryTierHistory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for _, tier := range []models.Tier{models.Tier1, models.Tier2, models.Tier2} {
		_, err := m.Insert(ctx, models.Record{EmployeeNumber: "2001", Tier: tier, Name: "Dee Drew"})
		require.NoError(t, err)
	}
	_, err := m.Insert(ctx, models.Record{EmployeeNumber: "2002", Tier: models.Tier1, Name: "Eva Ernst"})
	require.NoError(t, err)

	history, err := m.TierHistory(ctx, "2001")
	require.NoError(t, err)
	assert.Len(t, history, 3, "history keeps superseded rows")
}

func TestMemoryAdvisors(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	adv, err := m.AddAdvisor(ctx, models.Advisor{FirstName: "Fay", LastName: "Frost"})
	require.NoError(t, err)
	assert.NotZero(t, adv.ID)

	got, err := m.GetAdvisor(ctx, adv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fay", got.FirstName)

	_, err = m.GetAdvisor(ctx, 777)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	list, err := m.ListAdvisors(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

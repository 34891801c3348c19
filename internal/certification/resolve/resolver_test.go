package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierboard/internal/certification/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tier2Record(id int64, employee string) models.Record {
	return models.Record{
		ID:             id,
		EmployeeNumber: employee,
		Tier:           models.Tier2,
		Name:           "Employee " + employee,
		AssignedDate:   date(2024, 1, 1),
		Approval:       models.ApprovalAwaiting,
	}
}

func TestResolveKeepsLatestActivity(t *testing.T) {
	older := tier2Record(1, "E2")
	older.Approval = models.ApprovalRejected
	older.ConferenceCompletedDate = date(2024, 1, 1)

	newer := tier2Record(2, "E2")
	newer.Approval = models.ApprovalApproved
	newer.ConferenceCompletedDate = date(2024, 3, 1)

	t.Run("one row per employee keeps the later conference", func(t *testing.T) {
		got := Resolve([]models.Record{older, newer}, KeyByEmployee)
		require.Len(t, got, 1)
		assert.Equal(t, int64(2), got[0].ID)
	})

	t.Run("keyed by approval state keeps both outcomes", func(t *testing.T) {
		got := Resolve([]models.Record{older, newer}, KeyByEmployeeTierApproval)
		assert.Len(t, got, 2)
	})
}

func TestResolveIdempotent(t *testing.T) {
	records := []models.Record{
		tier2Record(1, "E1"),
		tier2Record(2, "E1"),
		tier2Record(3, "E2"),
	}
	records[1].ConferenceCompletedDate = date(2024, 2, 1)

	first := Resolve(records, KeyByEmployeeTier)
	second := Resolve(first, KeyByEmployeeTier)
	assert.Equal(t, first, second)
}

func TestResolveTieBreaksOnHighestID(t *testing.T) {
	a := tier2Record(10, "E3")
	b := tier2Record(42, "E3")
	// Identical activity vectors; only row identity differs.

	for i := 0; i < 5; i++ {
		got := Resolve([]models.Record{a, b}, KeyByEmployeeTier)
		require.Len(t, got, 1)
		assert.Equal(t, int64(42), got[0].ID)

		got = Resolve([]models.Record{b, a}, KeyByEmployeeTier)
		require.Len(t, got, 1)
		assert.Equal(t, int64(42), got[0].ID, "winner must not depend on input order")
	}
}

func TestCompareActivityOrdering(t *testing.T) {
	t.Run("awarded date dominates later minor dates", func(t *testing.T) {
		awarded := tier2Record(1, "E4")
		awarded.AwardedDate = date(2024, 1, 1)

		busy := tier2Record(2, "E4")
		busy.ConferenceCompletedDate = date(2024, 6, 1)
		busy.AssignedDate = date(2024, 6, 1)

		assert.Equal(t, 1, CompareActivity(awarded, busy))
	})

	t.Run("assigned date only breaks full ties", func(t *testing.T) {
		a := tier2Record(1, "E5")
		a.AssignedDate = date(2024, 1, 1)
		b := tier2Record(2, "E5")
		b.AssignedDate = date(2024, 5, 1)

		assert.Equal(t, -1, CompareActivity(a, b))
	})

	t.Run("absent dates compare as zero", func(t *testing.T) {
		a := tier2Record(1, "E6")
		a.AssignedDate = time.Time{}
		b := tier2Record(2, "E6")
		b.AssignedDate = time.Time{}

		assert.Equal(t, 0, CompareActivity(a, b))
	})
}

func TestByEmployeeTier(t *testing.T) {
	t1 := tier2Record(1, "E7")
	t1.Tier = models.Tier1
	t2 := tier2Record(2, "E7")

	idx := ByEmployeeTier([]models.Record{t1, t2})
	require.Contains(t, idx, "E7")
	assert.Equal(t, int64(1), idx["E7"][models.Tier1].ID)
	assert.Equal(t, int64(2), idx["E7"][models.Tier2].ID)
}

package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierboard/internal/certification/models"
	"tierboard/internal/certification/progression"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func completedRecord(id int64, facility string) models.Record {
	return models.Record{
		ID:             id,
		EmployeeNumber: "E" + facility + string(rune('0'+id%10)),
		Tier:           models.Tier2,
		Facility:       facility,
		AssignedDate:   date(2024, 1, 1),
		Awarded:        true,
		AwardedDate:    date(2024, 3, 1),
	}
}

func inProgressRecord(id int64, facility string) models.Record {
	return models.Record{
		ID:                      id,
		EmployeeNumber:          "P" + facility + string(rune('0'+id%10)),
		Tier:                    models.Tier2,
		Facility:                facility,
		AssignedDate:            date(2024, 2, 1),
		ConferenceCompletedDate: date(2024, 2, 15),
		Approval:                models.ApprovalApproved,
	}
}

func TestFacilityRanking(t *testing.T) {
	engine := New(progression.New())

	// North: 10 completed, 5 in progress. South: 2 completed, 8 in progress.
	var records []models.Record
	id := int64(1)
	for i := 0; i < 10; i++ {
		records = append(records, completedRecord(id, "North"))
		id++
	}
	for i := 0; i < 5; i++ {
		records = append(records, inProgressRecord(id, "North"))
		id++
	}
	for i := 0; i < 2; i++ {
		records = append(records, completedRecord(id, "South"))
		id++
	}
	for i := 0; i < 8; i++ {
		records = append(records, inProgressRecord(id, "South"))
		id++
	}

	ranked := engine.FacilityPerformance(records)
	require.Len(t, ranked, 2)

	north, south := ranked[0], ranked[1]
	assert.Equal(t, "North", north.Name, "North must rank above South")
	// 0.8*(10/15*100) + 0.2*(5/8*100)
	assert.InDelta(t, 65.83, north.Score, 0.01)
	// 0.8*(2/10*100) + 0.2*(8/8*100)
	assert.InDelta(t, 36.0, south.Score, 0.01)
}

func TestTopBottom(t *testing.T) {
	ranked := []GroupStats{
		{Name: "A", Score: 90}, {Name: "B", Score: 80}, {Name: "C", Score: 70},
		{Name: "D", Score: 60}, {Name: "E", Score: 50}, {Name: "F", Score: 40},
		{Name: "G", Score: 30},
	}

	r := TopBottom(ranked, 5)
	assert.Equal(t, "A", r.Top[0].Name)
	assert.Len(t, r.Top, 5)
	assert.Equal(t, "G", r.Bottom[0].Name, "bottom reads worst-first")
	assert.Len(t, r.Bottom, 5)

	short := TopBottom(ranked[:3], 5)
	assert.Len(t, short.Top, 3)
}

func TestTierCountsMixedSources(t *testing.T) {
	engine := New(progression.New())
	now := date(2024, 6, 1)

	canonical := []models.Record{
		completedRecord(1, "North"),
		inProgressRecord(2, "North"),
	}
	// The awaiting count runs over all rows, so a historical duplicate shows up.
	awaiting := models.Record{
		ID: 3, EmployeeNumber: "E-A", Tier: models.Tier2,
		AssignedDate:            date(2024, 1, 1),
		ConferenceCompletedDate: date(2024, 2, 1),
		Approval:                models.ApprovalAwaiting,
	}
	allRows := append([]models.Record{}, canonical...)
	allRows = append(allRows, awaiting, awaiting)

	counts := engine.TierCounts(canonical, allRows, now)
	var tier2 TierCount
	for _, c := range counts {
		if c.Tier == models.Tier2 {
			tier2 = c
		}
	}
	assert.Equal(t, 1, tier2.Completed)
	assert.Equal(t, 1, tier2.InProgress)
	assert.Equal(t, 2, tier2.Pending)
}

func TestMonthlyTrends(t *testing.T) {
	engine := New(progression.New())
	now := date(2024, 6, 15)

	records := []models.Record{
		{ID: 1, Tier: models.Tier1, AwardedDate: date(2024, 3, 10), AssignedDate: date(2024, 1, 20)},
		{ID: 2, Tier: models.Tier1, AwardedDate: date(2024, 6, 1), AssignedDate: date(2024, 4, 2)},
		{ID: 3, Tier: models.Tier1, AwardedDate: date(2023, 11, 1), AssignedDate: date(2023, 10, 1)}, // outside window
	}

	buckets := engine.MonthlyTrends(records, now)
	require.Len(t, buckets, 6)
	assert.Equal(t, "2024-01", buckets[0].Month)
	assert.Equal(t, "2024-06", buckets[5].Month)

	byMonth := map[string]MonthBucket{}
	for _, b := range buckets {
		byMonth[b.Month] = b
	}
	assert.Equal(t, 1, byMonth["2024-03"].Completions)
	assert.Equal(t, 1, byMonth["2024-06"].Completions)
	assert.Equal(t, 1, byMonth["2024-01"].Starts)
	assert.Equal(t, 1, byMonth["2024-04"].Starts)
}

func TestSummarize(t *testing.T) {
	engine := New(progression.New())
	now := date(2024, 3, 5)

	recent := completedRecord(1, "North")
	recent.AwardedDate = date(2024, 3, 1) // inside the 7-day window
	old := completedRecord(2, "North")
	old.AwardedDate = date(2024, 1, 1)
	overdue := models.Record{
		ID: 3, EmployeeNumber: "E-O", Tier: models.Tier1,
		AssignedDate: now.Add(-40 * 24 * time.Hour),
	}

	canonical := []models.Record{recent, old, inProgressRecord(4, "North"), overdue}
	s := engine.Summarize(canonical, canonical, now)

	assert.Equal(t, 1, s.RecentCompletions)
	assert.Equal(t, 1, s.OverdueCount)
	assert.Equal(t, 2, s.ActiveSessions) // in-progress + the assigned overdue record
	assert.InDelta(t, 2.0/3.0, s.Efficiency, 0.001)
}

func TestResultCache(t *testing.T) {
	now := date(2024, 1, 1)
	c := NewResultCache(time.Minute)

	_, ok := c.Get("k", now)
	assert.False(t, ok)

	c.Put("k", 42, now)
	v, ok := c.Get("k", now.Add(30*time.Second))
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok = c.Get("k", now.Add(2*time.Minute))
	assert.False(t, ok, "entries lapse after the TTL")

	disabled := NewResultCache(0)
	disabled.Put("k", 1, now)
	_, ok = disabled.Get("k", now)
	assert.False(t, ok)
}

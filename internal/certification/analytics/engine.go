// Package analytics derives dashboard statistics from a snapshot of the record
// set. Every aggregate is a full scan of the snapshot it is handed; there is no
// incremental maintenance, an intentional O(n)-per-request choice at this data
// scale, not an oversight.
package analytics

import (
	"sort"
	"time"

	"tierboard/internal/certification/models"
	"tierboard/internal/certification/progression"
)

// TierCount summarizes one tier.
type TierCount struct {
	Tier       models.Tier
	Completed  int
	InProgress int
	Pending    int
	Overdue    int
}

// GroupStats is a facility or area rollup with its ranking score.
type GroupStats struct {
	Name       string
	Total      int
	Completed  int
	InProgress int
	Awaiting   int
	Score      float64
}

// Rankings carries the best and worst groups by score.
type Rankings struct {
	Top    []GroupStats
	Bottom []GroupStats
}

// MonthBucket is one calendar month of trend data.
type MonthBucket struct {
	Month       string // "2006-01"
	Completions int    // awards in the month
	Starts      int    // assignments in the month
}

// Summary holds the scalar dashboard metrics.
type Summary struct {
	ActiveSessions    int
	OverdueCount      int
	RecentCompletions int // awards inside the trailing 7 days
	// AwaitingApprovals is counted over all rows, not the canonical set;
	// a superseded row still represents a pending approval.
	AwaitingApprovals int
	Efficiency        float64 // completed / (completed + in-progress), 0..1
}

// Engine computes aggregates. It owns no state beyond the shared evaluator.
type Engine struct {
	eval *progression.Evaluator
}

// New builds an Engine around the process-wide evaluator so overdue and status
// rules never diverge between views.
func New(eval *progression.Evaluator) *Engine {
	return &Engine{eval: eval}
}

// TierCounts returns per-tier completed / in-progress / pending / overdue
// counts. Completed, in-progress, and overdue are computed over the canonical
// set; pending (awaiting approval) over all rows.
func (e *Engine) TierCounts(canonical, allRows []models.Record, now time.Time) []TierCount {
	byTier := make(map[models.Tier]*TierCount, len(models.AllTiers))
	for _, t := range models.AllTiers {
		byTier[t] = &TierCount{Tier: t}
	}

	for _, r := range canonical {
		c, ok := byTier[r.Tier]
		if !ok {
			continue
		}
		switch progression.StatusOf(r) {
		case progression.StatusAwarded:
			c.Completed++
		case progression.StatusConferenceApproved:
			c.InProgress++
		}
		if e.eval.Overdue(r, now) {
			c.Overdue++
		}
	}
	for _, r := range allRows {
		if c, ok := byTier[r.Tier]; ok && progression.StatusOf(r) == progression.StatusConferenceAwaiting {
			c.Pending++
		}
	}

	out := make([]TierCount, 0, len(models.AllTiers))
	for _, t := range models.AllTiers {
		out = append(out, *byTier[t])
	}
	return out
}

// FacilityPerformance ranks facilities by score, best first.
func (e *Engine) FacilityPerformance(canonical []models.Record) []GroupStats {
	return e.groupPerformance(canonical, func(r models.Record) string { return r.Facility })
}

// AreaPerformance ranks areas by score, best first.
func (e *Engine) AreaPerformance(canonical []models.Record) []GroupStats {
	return e.groupPerformance(canonical, func(r models.Record) string { return r.Area })
}

// groupPerformance rolls the canonical set up by key and scores each group:
//
//	score = 0.8*completedRatio + 0.2*normalizedInProgress  (percent scale)
//
// where completedRatio = completed / max(completed+inProgress, 1) and
// normalizedInProgress = inProgress / max(maxInProgressAcrossGroups, 1).
func (e *Engine) groupPerformance(canonical []models.Record, key func(models.Record) string) []GroupStats {
	groups := make(map[string]*GroupStats)
	for _, r := range canonical {
		name := key(r)
		if name == "" {
			continue
		}
		g, ok := groups[name]
		if !ok {
			g = &GroupStats{Name: name}
			groups[name] = g
		}
		g.Total++
		switch progression.StatusOf(r) {
		case progression.StatusAwarded:
			g.Completed++
		case progression.StatusConferenceApproved:
			g.InProgress++
		case progression.StatusConferenceAwaiting:
			g.Awaiting++
		}
	}

	maxInProgress := 0
	for _, g := range groups {
		if g.InProgress > maxInProgress {
			maxInProgress = g.InProgress
		}
	}

	out := make([]GroupStats, 0, len(groups))
	for _, g := range groups {
		completedRatio := float64(g.Completed) / float64(maxInt(g.Completed+g.InProgress, 1)) * 100
		normalizedInProgress := float64(g.InProgress) / float64(maxInt(maxInProgress, 1)) * 100
		g.Score = 0.8*completedRatio + 0.2*normalizedInProgress
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// TopBottom slices a ranked list into the best and worst n entries.
func TopBottom(ranked []GroupStats, n int) Rankings {
	if n > len(ranked) {
		n = len(ranked)
	}
	top := make([]GroupStats, n)
	copy(top, ranked[:n])

	bottom := make([]GroupStats, n)
	copy(bottom, ranked[len(ranked)-n:])
	// Bottom reads worst-first.
	for i, j := 0, len(bottom)-1; i < j; i, j = i+1, j-1 {
		bottom[i], bottom[j] = bottom[j], bottom[i]
	}
	return Rankings{Top: top, Bottom: bottom}
}

// MonthlyTrends buckets the last six calendar months, oldest first:
// completions by awarded date, in-progress starts by assigned date.
func (e *Engine) MonthlyTrends(canonical []models.Record, now time.Time) []MonthBucket {
	const months = 6
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	buckets := make([]MonthBucket, months)
	index := make(map[string]int, months)
	for i := range buckets {
		m := first.AddDate(0, i, 0).Format("2006-01")
		buckets[i] = MonthBucket{Month: m}
		index[m] = i
	}

	for _, r := range canonical {
		if !r.AwardedDate.IsZero() {
			if i, ok := index[r.AwardedDate.Format("2006-01")]; ok {
				buckets[i].Completions++
			}
		}
		if !r.AssignedDate.IsZero() {
			if i, ok := index[r.AssignedDate.Format("2006-01")]; ok {
				buckets[i].Starts++
			}
		}
	}
	return buckets
}

// Summarize computes the scalar dashboard metrics.
func (e *Engine) Summarize(canonical, allRows []models.Record, now time.Time) Summary {
	var s Summary
	completed, inProgress := 0, 0
	weekAgo := now.Add(-7 * 24 * time.Hour)

	for _, r := range canonical {
		status := progression.StatusOf(r)
		switch status {
		case progression.StatusAwarded:
			completed++
			if r.AwardedDate.After(weekAgo) {
				s.RecentCompletions++
			}
		case progression.StatusConferenceApproved:
			inProgress++
		}
		if status != progression.StatusAwarded && status != progression.StatusUnassigned {
			s.ActiveSessions++
		}
		if e.eval.Overdue(r, now) {
			s.OverdueCount++
		}
	}
	for _, r := range allRows {
		if progression.StatusOf(r) == progression.StatusConferenceAwaiting {
			s.AwaitingApprovals++
		}
	}

	s.Efficiency = float64(completed) / float64(maxInt(completed+inProgress, 1))
	return s
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

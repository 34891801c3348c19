// Package resolve collapses multiple historical rows per employee/tier into
// canonical records.
//
// Rescheduling and rejection flows insert new rows rather than mutating old
// ones, so any raw query can return several rows for the same logical record.
// Every consumer (record listing, dashboards, readiness checks) deduplicates
// through this package; the recency rule lives here and nowhere else, because
// two call sites disagreeing on "which row is current" is the most visible
// inconsistency this system can produce.
package resolve

import (
	"sort"
	"time"

	"tierboard/internal/certification/models"
)

// KeyMode selects the grouping key for deduplication.
type KeyMode int

const (
	// KeyByEmployee keeps one record per employee: the single most recently
	// active row across all tiers.
	KeyByEmployee KeyMode = iota
	// KeyByEmployeeTier keeps one canonical record per (employee, tier).
	// Progression rules consume this view.
	KeyByEmployeeTier
	// KeyByEmployeeTierApproval keeps one record per (employee, tier,
	// approval state), so an approved attempt and a previously rejected one
	// coexist in aggregates.
	KeyByEmployeeTierApproval
)

type groupKey struct {
	employee string
	tier     models.Tier
	approval models.ApprovalState
}

func keyOf(r models.Record, mode KeyMode) groupKey {
	k := groupKey{employee: r.EmployeeNumber}
	switch mode {
	case KeyByEmployeeTier:
		k.tier = r.Tier
	case KeyByEmployeeTierApproval:
		k.tier = r.Tier
		k.approval = r.Approval
	}
	return k
}

// Resolve returns the canonical record per group. Within a group the record
// with the greatest activity timestamp wins; ties break toward the highest row
// ID, so the result is deterministic. Output is sorted by employee number,
// tier, then ID, which makes Resolve idempotent byte-for-byte.
func Resolve(records []models.Record, mode KeyMode) []models.Record {
	winners := make(map[groupKey]models.Record, len(records))
	for _, r := range records {
		k := keyOf(r, mode)
		incumbent, ok := winners[k]
		if !ok || beats(r, incumbent) {
			winners[k] = r
		}
	}

	out := make([]models.Record, 0, len(winners))
	for _, r := range winners {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeNumber != out[j].EmployeeNumber {
			return out[i].EmployeeNumber < out[j].EmployeeNumber
		}
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// beats reports whether candidate should replace incumbent as canonical.
func beats(candidate, incumbent models.Record) bool {
	switch CompareActivity(candidate, incumbent) {
	case 1:
		return true
	case -1:
		return false
	default:
		return candidate.ID > incumbent.ID
	}
}

// CompareActivity orders two records by latest activity. The comparison walks
// an ordered list of date attributes (awarded date, conference completed date,
// each completed-artifact date in registry order, then assigned date) where
// later entries only break ties among earlier ones. Absent dates compare as
// zero. Returns -1, 0, or 1.
func CompareActivity(a, b models.Record) int {
	av, bv := activityVector(a), activityVector(b)
	n := len(av)
	if len(bv) > n {
		n = len(bv)
	}
	for i := 0; i < n; i++ {
		at, bt := vectorAt(av, i), vectorAt(bv, i)
		switch {
		case at.After(bt):
			return 1
		case bt.After(at):
			return -1
		}
	}
	return 0
}

func activityVector(r models.Record) []time.Time {
	artifacts := models.ArtifactsFor(r.Tier)
	v := make([]time.Time, 0, 3+len(artifacts))
	v = append(v, r.AwardedDate, r.ConferenceCompletedDate)
	for _, a := range artifacts {
		v = append(v, r.CompletedDate(a.Key))
	}
	v = append(v, r.AssignedDate)
	return v
}

// vectorAt pads shorter vectors with zero times so records from tiers with
// different artifact counts stay comparable.
func vectorAt(v []time.Time, i int) time.Time {
	if i < len(v) {
		return v[i]
	}
	return time.Time{}
}

// ByEmployeeTier indexes canonical records by employee and then by tier.
// Convenience for the progression evaluator, which needs per-tier lookups.
func ByEmployeeTier(canonical []models.Record) map[string]map[models.Tier]models.Record {
	out := make(map[string]map[models.Tier]models.Record)
	for _, r := range canonical {
		tiers, ok := out[r.EmployeeNumber]
		if !ok {
			tiers = make(map[models.Tier]models.Record, len(models.AllTiers))
			out[r.EmployeeNumber] = tiers
		}
		tiers[r.Tier] = r
	}
	return out
}

// Package progression implements the per-employee tier state machine: per-tier
// status, overdue checks, and award readiness.
package progression

import (
	"fmt"
	"sort"
	"time"

	"tierboard/internal/certification/models"
)

// Status is the derived state of a single tier record, in ascending priority.
type Status int

const (
	StatusUnassigned Status = iota
	StatusAssigned
	StatusConferenceRejected
	StatusConferenceAwaiting
	StatusConferenceApproved
	StatusAwarded
)

func (s Status) String() string {
	switch s {
	case StatusUnassigned:
		return "unassigned"
	case StatusAssigned:
		return "assigned"
	case StatusConferenceRejected:
		return "conference_rejected"
	case StatusConferenceAwaiting:
		return "conference_awaiting"
	case StatusConferenceApproved:
		return "conference_approved"
	case StatusAwarded:
		return "awarded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// SLAs maps tiers to their completion deadline measured from assignment.
// A zero duration means the tier has no deadline.
type SLAs map[models.Tier]time.Duration

// DefaultSLAs returns the reference deadlines: 30/45/60 days for tiers 1-3.
// Consultant and coach tiers carry no deadline by default; override via
// configuration if that turns out to be an oversight rather than policy.
func DefaultSLAs() SLAs {
	return SLAs{
		models.Tier1: 30 * 24 * time.Hour,
		models.Tier2: 45 * 24 * time.Hour,
		models.Tier3: 60 * 24 * time.Hour,
	}
}

// Evaluator computes readiness and overdue state. Construct one at startup and
// share it; it is immutable and safe for concurrent use.
type Evaluator struct {
	slas     SLAs
	optional map[models.Tier]bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithSLAs overrides the default tier deadlines.
func WithSLAs(slas SLAs) Option {
	return func(e *Evaluator) { e.slas = slas }
}

// WithOptionalTiers overrides which tiers are optional evidence in the chain.
func WithOptionalTiers(tiers ...models.Tier) Option {
	return func(e *Evaluator) {
		e.optional = make(map[models.Tier]bool, len(tiers))
		for _, t := range tiers {
			e.optional[t] = true
		}
	}
}

// New builds an Evaluator. By default tier 3 is optional evidence for
// advancing to consultant: an absent tier-3 record does not block, but a
// present one must still be awarded.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		slas:     DefaultSLAs(),
		optional: map[models.Tier]bool{models.Tier3: true},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// awarded treats a set awarded date as equivalent to the flag; historical rows
// carry one or the other.
func awarded(r models.Record) bool {
	return r.Awarded || !r.AwardedDate.IsZero()
}

// StatusOf derives the status of one record. Priority: awarded, then the
// conference tri-state (only once the conference has actually happened), then
// assigned.
func StatusOf(r models.Record) Status {
	if awarded(r) {
		return StatusAwarded
	}
	if !r.ConferenceCompletedDate.IsZero() {
		switch r.Approval {
		case models.ApprovalApproved:
			return StatusConferenceApproved
		case models.ApprovalAwaiting:
			return StatusConferenceAwaiting
		case models.ApprovalRejected:
			return StatusConferenceRejected
		}
	}
	if !r.AssignedDate.IsZero() {
		return StatusAssigned
	}
	return StatusUnassigned
}

// Overdue reports whether a record has blown its tier deadline. The exact
// boundary is not overdue: assignedDate + SLA == now passes.
func (e *Evaluator) Overdue(r models.Record, now time.Time) bool {
	sla := e.slas[r.Tier]
	if sla <= 0 || awarded(r) || r.AssignedDate.IsZero() {
		return false
	}
	return now.After(r.AssignedDate.Add(sla))
}

// ReadyToAward reports whether the employee's canonical record for the target
// tier is ready to be awarded: the record exists, is not yet awarded, every
// tier-specific artifact carries a completed date (scheduled-only items do not
// count), the conference is completed and approved, and the chain below the
// target is satisfied.
func (e *Evaluator) ReadyToAward(target models.Tier, tiers map[models.Tier]models.Record) (models.Record, bool) {
	rec, ok := tiers[target]
	if !ok || awarded(rec) {
		return models.Record{}, false
	}
	if !rec.AllArtifactsCompleted() || !rec.ConferenceApproved() {
		return models.Record{}, false
	}
	if !e.chainSatisfied(target, tiers) {
		return models.Record{}, false
	}
	return rec, true
}

// chainSatisfied walks down from the tier below target. The nearest
// non-optional tier must hold an awarded record; optional tiers do not block
// when absent but must be awarded when present.
func (e *Evaluator) chainSatisfied(target models.Tier, tiers map[models.Tier]models.Record) bool {
	tier, ok := target.Prev()
	for ok {
		rec, present := tiers[tier]
		if present {
			return awarded(rec)
		}
		if !e.optional[tier] {
			return false
		}
		tier, ok = tier.Prev()
	}
	// Bottom of the ladder: tier 1 has no predecessor requirement.
	return true
}

// ReadyForTier filters a canonical record set (one record per employee+tier)
// down to the target-tier records ready for award, sorted area-then-name, the
// module's default ordering.
func (e *Evaluator) ReadyForTier(canonical []models.Record, target models.Tier) []models.Record {
	byEmployee := make(map[string]map[models.Tier]models.Record)
	for _, r := range canonical {
		tiers, ok := byEmployee[r.EmployeeNumber]
		if !ok {
			tiers = make(map[models.Tier]models.Record, len(models.AllTiers))
			byEmployee[r.EmployeeNumber] = tiers
		}
		tiers[r.Tier] = r
	}

	var out []models.Record
	for _, tiers := range byEmployee {
		if rec, ok := e.ReadyToAward(target, tiers); ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Area != out[j].Area {
			return out[i].Area < out[j].Area
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

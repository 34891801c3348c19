package models

import "time"

// Record is one row per (employee, tier). EmployeeNumber is the stable
// cross-tier identity; ID is row identity only and is NOT stable across tiers.
// Rows are never hard-deleted: rescheduling and rejection flows may insert new
// rows, so the store can hold several historical rows for the same employee and
// tier. The resolve package picks the canonical one.
type Record struct {
	ID             int64
	EmployeeNumber string
	Tier           Tier
	Name           string
	Facility       string
	Area           string
	JobTitle       string

	AssignedDate time.Time

	// Scheduled and Completed hold per-tier artifact dates keyed by artifact
	// key. Only keys from ArtifactsFor(Tier) ever appear; a zero time or a
	// missing key both mean "not set".
	Scheduled map[ArtifactKey]time.Time
	Completed map[ArtifactKey]time.Time

	ConferenceCompletedDate time.Time
	Approval                ApprovalState
	Awarded                 bool
	AwardedDate             time.Time

	Notes     string
	AdvisorID *int64
}

// Clone returns a deep copy; stores hand out clones so callers cannot mutate
// shared state.
func (r Record) Clone() Record {
	out := r
	out.Scheduled = cloneDates(r.Scheduled)
	out.Completed = cloneDates(r.Completed)
	if r.AdvisorID != nil {
		v := *r.AdvisorID
		out.AdvisorID = &v
	}
	return out
}

func cloneDates(m map[ArtifactKey]time.Time) map[ArtifactKey]time.Time {
	if m == nil {
		return nil
	}
	out := make(map[ArtifactKey]time.Time, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CompletedDate returns the completed date for an artifact, zero if unset.
func (r Record) CompletedDate(key ArtifactKey) time.Time {
	if r.Completed == nil {
		return time.Time{}
	}
	return r.Completed[key]
}

// ScheduledDate returns the scheduled date for an artifact, zero if unset.
func (r Record) ScheduledDate(key ArtifactKey) time.Time {
	if r.Scheduled == nil {
		return time.Time{}
	}
	return r.Scheduled[key]
}

// AllArtifactsCompleted reports whether every artifact defined for the
// record's tier carries a completed date. Scheduled-only items do not count.
func (r Record) AllArtifactsCompleted() bool {
	for _, a := range ArtifactsFor(r.Tier) {
		if r.CompletedDate(a.Key).IsZero() {
			return false
		}
	}
	return true
}

// ConferenceApproved reports a completed, approved conference.
func (r Record) ConferenceApproved() bool {
	return !r.ConferenceCompletedDate.IsZero() && r.Approval == ApprovalApproved
}

// Advisor is referenced, never owned, by certification records.
type Advisor struct {
	ID        int64
	FirstName string
	LastName  string
}

// Package audit records every mutation as an immutable event behind one
// interface with interchangeable backends. The trail is advisory, not
// authoritative: audit completeness never implies mutation success, and a
// failed append never blocks the mutation that triggered it.
package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action classifies one mutating operation.
type Action string

const (
	ActionAssign          Action = "tier_assigned"
	ActionSchedule        Action = "artifact_scheduled"
	ActionComplete        Action = "artifact_completed"
	ActionEditDate        Action = "completed_date_edited"
	ActionApprove         Action = "conference_approved"
	ActionReject          Action = "conference_rejected"
	ActionAward           Action = "tier_awarded"
	ActionNotes           Action = "notes_updated"
	ActionAdvisorAssigned Action = "advisor_assigned"
	ActionAdvisorAdded    Action = "advisor_added"
)

// Event is one immutable audit record. Created exactly once per mutation,
// never updated or deleted; owned by this package and read-only elsewhere.
type Event struct {
	ID             uuid.UUID
	Timestamp      time.Time
	Actor          string // opaque caller identity; "unknown" when absent
	Action         Action
	RecordID       int64
	EmployeeNumber string
	EmployeeName   string
	Tier           string
	Field          string
	OldValue       string
	NewValue       string
	Details        string
	SourceAddress  string
	UserAgent      string // normalized client description, e.g. "Chrome/120 (Linux)"
}

// Filter narrows a trail listing. Zero values mean "any".
type Filter struct {
	Actor          string
	Action         Action
	EmployeeNumber string
	Tier           string
	Query          string // free text over employee name, field, details
	From, To       time.Time
}

// Matches applies the filter to one event. The partitioned log backend has no
// native predicates and filters client-side through this; the relational
// backend expresses the same conditions in SQL.
func (f Filter) Matches(e Event) bool {
	if f.Actor != "" && e.Actor != f.Actor {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.EmployeeNumber != "" && e.EmployeeNumber != f.EmployeeNumber {
		return false
	}
	if f.Tier != "" && e.Tier != f.Tier {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(e.EmployeeName), q) &&
			!strings.Contains(strings.ToLower(e.Field), q) &&
			!strings.Contains(strings.ToLower(e.Details), q) {
			return false
		}
	}
	return true
}

// ActorCount is one entry of the top-actors leaderboard.
type ActorCount struct {
	Actor string
	Count int64
}

// DayCount is one day of activity.
type DayCount struct {
	Date  string // "2006-01-02"
	Count int64
}

// Stats summarizes trail activity for the dashboard.
type Stats struct {
	ActionCounts map[Action]int64
	DailyCounts  []DayCount // last 7 days, oldest first
	TopActors    []ActorCount
}

package models

import (
	"fmt"
	"sort"
)

// Field names a single mutable column on a certification record. The set of
// fields per tier is closed; every dynamically-selected field name reaching a
// store is checked against MutableFields before any write is attempted.
type Field string

const (
	FieldNotes               Field = "notes"
	FieldAdvisorID           Field = "advisor_id"
	FieldAwaitingApproval    Field = "awaiting_approval"
	FieldAwarded             Field = "awarded"
	FieldAwardedDate         Field = "awarded_date"
	FieldConferenceCompleted Field = "conference_completed_date"
)

// ScheduledField returns the mutable field for an artifact's scheduled date.
func ScheduledField(a Artifact) Field { return Field(a.ScheduledColumn) }

// CompletedField returns the mutable field for an artifact's completed date.
func CompletedField(a Artifact) Field { return Field(a.CompletedColumn) }

// FieldSet maps fields to new values for a single-record mutation. Supported
// value types: time.Time (dates), string, bool, int64, ApprovalState, and nil
// to null a column.
type FieldSet map[Field]any

// MutableFields returns the closed allow-list of fields writable on a record
// of the given tier.
func MutableFields(t Tier) map[Field]struct{} {
	out := map[Field]struct{}{
		FieldNotes:               {},
		FieldAdvisorID:           {},
		FieldAwaitingApproval:    {},
		FieldAwarded:             {},
		FieldAwardedDate:         {},
		FieldConferenceCompleted: {},
	}
	for _, a := range ArtifactsFor(t) {
		out[ScheduledField(a)] = struct{}{}
		out[CompletedField(a)] = struct{}{}
	}
	return out
}

// ValidateFieldSet rejects any field outside the tier's allow-list. The error
// names the offending fields deterministically (sorted) for stable messages.
func ValidateFieldSet(t Tier, fs FieldSet) error {
	allowed := MutableFields(t)
	var bad []string
	for f := range fs {
		if _, ok := allowed[f]; !ok {
			bad = append(bad, string(f))
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return fmt.Errorf("field(s) not permitted for %s: %v", t, bad)
}

// DateFilterColumn validates a caller-supplied date-filter name against the
// allow-list of date columns and returns the fixed storage identifier. When
// tier is nil the filter may name any tier's artifact column.
func DateFilterColumn(tier *Tier, name string) (string, bool) {
	switch name {
	case "assigned_date", "awarded_date", "conference_completed_date":
		return name, true
	}
	artifacts := AllArtifacts()
	if tier != nil {
		artifacts = ArtifactsFor(*tier)
	}
	for _, a := range artifacts {
		if name == a.ScheduledColumn || name == a.CompletedColumn {
			return name, true
		}
	}
	return "", false
}

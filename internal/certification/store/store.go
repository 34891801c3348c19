// Package store is the persistence gateway for certification records and
// advisors. Stores are interface-driven so the service layer stays testable
// and the postgres and in-memory implementations remain interchangeable.
//
// Every dynamically-selected field or sort name passes through a fixed
// allow-list before it reaches a query; caller input is never concatenated
// into SQL.
package store

import (
	"context"
	"strings"
	"time"

	"tierboard/internal/certification/models"
)

// Limit caps. Interactive listings stay small; dashboard and readiness scans
// need the full filtered set in one call.
const (
	DefaultLimit = 20
	MaxLimit     = 100
	MaxBulkLimit = 10000
)

// StatusFilter is a derived predicate over raw rows, expressible natively by
// both backends. The empty value means no status filtering.
type StatusFilter string

const (
	StatusFilterNone       StatusFilter = ""
	StatusFilterAwarded    StatusFilter = "awarded"
	StatusFilterInProgress StatusFilter = "in_progress"
	StatusFilterAwaiting   StatusFilter = "awaiting"
	StatusFilterRejected   StatusFilter = "rejected"
	StatusFilterAssigned   StatusFilter = "assigned"
)

// Valid reports whether the filter is one of the recognized predicates.
func (s StatusFilter) Valid() bool {
	switch s {
	case StatusFilterNone, StatusFilterAwarded, StatusFilterInProgress,
		StatusFilterAwaiting, StatusFilterRejected, StatusFilterAssigned:
		return true
	}
	return false
}

// FindParams describes one filtered, paginated, sorted record query.
type FindParams struct {
	Tier       *models.Tier // nil = all tiers
	Facilities []string     // empty = all facilities
	Area       string
	Query      string // free text over name and employee number
	JobTitle   string
	DateField  string // allow-listed date column; see models.DateFilterColumn
	DateValue  time.Time
	Status     StatusFilter

	Page  int // 1-based
	Limit int
	Bulk  bool // raises the limit cap for dashboard/readiness scans

	SortBy string // validated against sortColumns; unknown keys fall back
}

// Normalize clamps pagination to the documented bounds.
func (p FindParams) Normalize() FindParams {
	if p.Page < 1 {
		p.Page = 1
	}
	cap := MaxLimit
	if p.Bulk {
		cap = MaxBulkLimit
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
		if p.Bulk {
			p.Limit = MaxBulkLimit
		}
	}
	if p.Limit > cap {
		p.Limit = cap
	}
	return p
}

// Offset derives the row offset from 1-based pagination.
func (p FindParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// CacheKey serializes the filter portion of the params; analytics uses it to
// key its short-TTL result cache.
func (p FindParams) CacheKey() string {
	var b strings.Builder
	if p.Tier != nil {
		b.WriteString(p.Tier.String())
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(p.Facilities, ","))
	b.WriteByte('|')
	b.WriteString(p.Area)
	b.WriteByte('|')
	b.WriteString(p.Query)
	b.WriteByte('|')
	b.WriteString(p.JobTitle)
	b.WriteByte('|')
	b.WriteString(p.DateField)
	b.WriteByte('|')
	if !p.DateValue.IsZero() {
		b.WriteString(p.DateValue.Format("2006-01-02"))
	}
	b.WriteByte('|')
	b.WriteString(string(p.Status))
	return b.String()
}

// sortColumns is the whitelist of accepted sort keys mapped to fixed order
// clauses. Unrecognized keys fall back to defaultSortKey.
var sortColumns = map[string]string{
	"area":     "area, name",
	"name":     "name, employee_number",
	"facility": "facility, name",
	"employee": "employee_number",
	"assigned": "assigned_date DESC NULLS LAST",
	"awarded":  "awarded_date DESC NULLS LAST",
}

const defaultSortKey = "area"

// orderClause resolves a requested sort key against the whitelist.
func orderClause(sortBy string) string {
	if clause, ok := sortColumns[sortBy]; ok {
		return clause
	}
	return sortColumns[defaultSortKey]
}

// RecordStore is the persistence gateway contract for certification records.
type RecordStore interface {
	// Query returns the filtered page and the total count of matching rows.
	Query(ctx context.Context, params FindParams) ([]models.Record, int64, error)
	// GetByID fetches one row; sentinel.ErrNotFound when absent.
	GetByID(ctx context.Context, id int64) (models.Record, error)
	// TierHistory returns every row ever written for an employee, all tiers,
	// including superseded historical rows.
	TierHistory(ctx context.Context, employeeNumber string) ([]models.Record, error)
	// Insert creates a tier row and returns it with its assigned identity.
	Insert(ctx context.Context, rec models.Record) (models.Record, error)
	// Mutate applies a validated field set to one row by primary key. Field
	// names outside the record's tier allow-list fail before any write.
	Mutate(ctx context.Context, id int64, fields models.FieldSet) error
}

// AdvisorStore manages the advisor reference table.
type AdvisorStore interface {
	AddAdvisor(ctx context.Context, adv models.Advisor) (models.Advisor, error)
	GetAdvisor(ctx context.Context, id int64) (models.Advisor, error)
	ListAdvisors(ctx context.Context) ([]models.Advisor, error)
}

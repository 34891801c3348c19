package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"tierboard/internal/certification/models"
	"tierboard/pkg/sentinel"
)

// Memory is an in-memory implementation of RecordStore and AdvisorStore. It
// backs unit tests and the no-database dev mode; it intentionally favors
// clarity over performance.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	records  map[int64]models.Record
	advisors map[int64]models.Advisor
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records:  make(map[int64]models.Record),
		advisors: make(map[int64]models.Advisor),
	}
}

func (m *Memory) Query(_ context.Context, params FindParams) ([]models.Record, int64, error) {
	params = params.Normalize()

	m.mu.RLock()
	var matched []models.Record
	for _, r := range m.records {
		if matches(r, params) {
			matched = append(matched, r.Clone())
		}
	}
	m.mu.RUnlock()

	SortRecords(matched, params.SortBy)

	total := int64(len(matched))
	start := params.Offset()
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.records[id]; ok {
		return r.Clone(), nil
	}
	return models.Record{}, sentinel.ErrNotFound
}

func (m *Memory) TierHistory(_ context.Context, employeeNumber string) ([]models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Record
	for _, r := range m.records {
		if r.EmployeeNumber == employeeNumber {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) Insert(_ context.Context, rec models.Record) (models.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rec.ID = m.nextID
	m.records[rec.ID] = rec.Clone()
	return rec, nil
}

func (m *Memory) Mutate(_ context.Context, id int64, fields models.FieldSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if err := models.ValidateFieldSet(rec.Tier, fields); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrInvalidField, err)
	}
	for f, v := range fields {
		applyField(&rec, f, v)
	}
	m.records[id] = rec
	return nil
}

func (m *Memory) AddAdvisor(_ context.Context, adv models.Advisor) (models.Advisor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	adv.ID = m.nextID
	m.advisors[adv.ID] = adv
	return adv, nil
}

func (m *Memory) GetAdvisor(_ context.Context, id int64) (models.Advisor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.advisors[id]; ok {
		return a, nil
	}
	return models.Advisor{}, sentinel.ErrNotFound
}

func (m *Memory) ListAdvisors(_ context.Context) ([]models.Advisor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Advisor, 0, len(m.advisors))
	for _, a := range m.advisors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// matches mirrors the predicates the postgres store expresses in SQL.
func matches(r models.Record, p FindParams) bool {
	if p.Tier != nil && r.Tier != *p.Tier {
		return false
	}
	if len(p.Facilities) > 0 && !containsFold(p.Facilities, r.Facility) {
		return false
	}
	if p.Area != "" && !strings.EqualFold(r.Area, p.Area) {
		return false
	}
	if p.JobTitle != "" && !strings.EqualFold(r.JobTitle, p.JobTitle) {
		return false
	}
	if p.Query != "" {
		q := strings.ToLower(p.Query)
		if !strings.Contains(strings.ToLower(r.Name), q) &&
			!strings.Contains(strings.ToLower(r.EmployeeNumber), q) {
			return false
		}
	}
	if p.DateField != "" {
		col, ok := models.DateFilterColumn(p.Tier, p.DateField)
		if !ok {
			return false
		}
		if !sameDate(dateColumnValue(r, col), p.DateValue) {
			return false
		}
	}
	return matchesStatus(r, p.Status)
}

func matchesStatus(r models.Record, s StatusFilter) bool {
	awarded := r.Awarded || !r.AwardedDate.IsZero()
	confDone := !r.ConferenceCompletedDate.IsZero()
	switch s {
	case StatusFilterNone:
		return true
	case StatusFilterAwarded:
		return awarded
	case StatusFilterInProgress:
		return !awarded && confDone && r.Approval == models.ApprovalApproved
	case StatusFilterAwaiting:
		return !awarded && confDone && r.Approval == models.ApprovalAwaiting
	case StatusFilterRejected:
		return confDone && r.Approval == models.ApprovalRejected
	case StatusFilterAssigned:
		return !awarded && !confDone && !r.AssignedDate.IsZero()
	default:
		return false
	}
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func sameDate(a, b time.Time) bool {
	if a.IsZero() || b.IsZero() {
		return false
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dateColumnValue reads the allow-listed date column off a record.
func dateColumnValue(r models.Record, col string) time.Time {
	switch col {
	case "assigned_date":
		return r.AssignedDate
	case "awarded_date":
		return r.AwardedDate
	case "conference_completed_date":
		return r.ConferenceCompletedDate
	}
	for _, a := range models.ArtifactsFor(r.Tier) {
		switch col {
		case a.ScheduledColumn:
			return r.ScheduledDate(a.Key)
		case a.CompletedColumn:
			return r.CompletedDate(a.Key)
		}
	}
	return time.Time{}
}

// SortRecords orders records in place by an allow-listed sort key, mirroring
// the order clauses in sortColumns. The service reuses it to restore the
// requested order after deduplication reshuffles a result set.
func SortRecords(records []models.Record, sortBy string) {
	if _, ok := sortColumns[sortBy]; !ok {
		sortBy = defaultSortKey
	}
	less := func(i, j models.Record) bool {
		switch sortBy {
		case "name":
			if i.Name != j.Name {
				return i.Name < j.Name
			}
			return i.EmployeeNumber < j.EmployeeNumber
		case "facility":
			if i.Facility != j.Facility {
				return i.Facility < j.Facility
			}
			return i.Name < j.Name
		case "employee":
			return i.EmployeeNumber < j.EmployeeNumber
		case "assigned":
			if !i.AssignedDate.Equal(j.AssignedDate) {
				return i.AssignedDate.After(j.AssignedDate)
			}
		case "awarded":
			if !i.AwardedDate.Equal(j.AwardedDate) {
				return i.AwardedDate.After(j.AwardedDate)
			}
		default: // area
			if i.Area != j.Area {
				return i.Area < j.Area
			}
			if i.Name != j.Name {
				return i.Name < j.Name
			}
		}
		return i.ID < j.ID
	}
	sort.SliceStable(records, func(i, j int) bool { return less(records[i], records[j]) })
}

// applyField writes one validated field onto a record. Type mismatches leave
// the field untouched rather than panicking; validation upstream makes them
// unreachable in practice.
func applyField(r *models.Record, f models.Field, v any) {
	switch f {
	case models.FieldNotes:
		if s, ok := v.(string); ok {
			r.Notes = s
		}
	case models.FieldAdvisorID:
		switch id := v.(type) {
		case nil:
			r.AdvisorID = nil
		case int64:
			r.AdvisorID = &id
		}
	case models.FieldAwaitingApproval:
		if a, ok := v.(models.ApprovalState); ok {
			r.Approval = a
		}
	case models.FieldAwarded:
		if b, ok := v.(bool); ok {
			r.Awarded = b
		}
	case models.FieldAwardedDate:
		r.AwardedDate = timeOrZero(v)
	case models.FieldConferenceCompleted:
		r.ConferenceCompletedDate = timeOrZero(v)
	default:
		applyArtifactField(r, f, v)
	}
}

func applyArtifactField(r *models.Record, f models.Field, v any) {
	for _, a := range models.ArtifactsFor(r.Tier) {
		switch f {
		case models.ScheduledField(a):
			if r.Scheduled == nil {
				r.Scheduled = make(map[models.ArtifactKey]time.Time)
			}
			setOrDelete(r.Scheduled, a.Key, v)
			return
		case models.CompletedField(a):
			if r.Completed == nil {
				r.Completed = make(map[models.ArtifactKey]time.Time)
			}
			setOrDelete(r.Completed, a.Key, v)
			return
		}
	}
}

func setOrDelete(m map[models.ArtifactKey]time.Time, key models.ArtifactKey, v any) {
	t := timeOrZero(v)
	if t.IsZero() {
		delete(m, key)
		return
	}
	m[key] = t
}

func timeOrZero(v any) time.Time {
	if t, ok := v.(time.Time); ok {
		return t
	}
	return time.Time{}
}

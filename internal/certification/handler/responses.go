package handler

import (
	"time"

	"tierboard/internal/audit"
	"tierboard/internal/certification/analytics"
	"tierboard/internal/certification/models"
	"tierboard/internal/certification/progression"
	"tierboard/internal/certification/service"
)

// ActivityResponse is one recent audit event in the dashboard feed.
type ActivityResponse struct {
	Timestamp      time.Time `json:"timestamp"`
	Actor          string    `json:"actor"`
	Action         string    `json:"action"`
	EmployeeNumber string    `json:"employee_number,omitempty"`
	EmployeeName   string    `json:"employee_name,omitempty"`
	Tier           string    `json:"tier,omitempty"`
	Details        string    `json:"details,omitempty"`
}

func fromEvents(events []audit.Event) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(events))
	for _, e := range events {
		out = append(out, ActivityResponse{
			Timestamp:      e.Timestamp,
			Actor:          e.Actor,
			Action:         string(e.Action),
			EmployeeNumber: e.EmployeeNumber,
			EmployeeName:   e.EmployeeName,
			Tier:           e.Tier,
			Details:        e.Details,
		})
	}
	return out
}

// RecordResponse is the wire shape of one certification record.
type RecordResponse struct {
	ID                      int64             `json:"id"`
	EmployeeNumber          string            `json:"employee_number"`
	Tier                    string            `json:"tier"`
	Name                    string            `json:"name"`
	Facility                string            `json:"facility,omitempty"`
	Area                    string            `json:"area,omitempty"`
	JobTitle                string            `json:"job_title,omitempty"`
	Status                  string            `json:"status"`
	AssignedDate            string            `json:"assigned_date,omitempty"`
	Scheduled               map[string]string `json:"scheduled,omitempty"`
	Completed               map[string]string `json:"completed,omitempty"`
	ConferenceCompletedDate string            `json:"conference_completed_date,omitempty"`
	Approval                string            `json:"approval"`
	Awarded                 bool              `json:"awarded"`
	AwardedDate             string            `json:"awarded_date,omitempty"`
	Notes                   string            `json:"notes,omitempty"`
	AdvisorID               *int64            `json:"advisor_id,omitempty"`
}

// ListResponse wraps a record page with its total match count.
type ListResponse struct {
	Records []RecordResponse `json:"records"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
}

// AdvisorResponse is the wire shape of one advisor.
type AdvisorResponse struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FromRecord converts a domain record to its wire shape.
func FromRecord(r models.Record) RecordResponse {
	return RecordResponse{
		ID:                      r.ID,
		EmployeeNumber:          r.EmployeeNumber,
		Tier:                    r.Tier.String(),
		Name:                    r.Name,
		Facility:                r.Facility,
		Area:                    r.Area,
		JobTitle:                r.JobTitle,
		Status:                  progression.StatusOf(r).String(),
		AssignedDate:            wireDate(r.AssignedDate),
		Scheduled:               wireDates(r.Scheduled),
		Completed:               wireDates(r.Completed),
		ConferenceCompletedDate: wireDate(r.ConferenceCompletedDate),
		Approval:                r.Approval.String(),
		Awarded:                 r.Awarded,
		AwardedDate:             wireDate(r.AwardedDate),
		Notes:                   r.Notes,
		AdvisorID:               r.AdvisorID,
	}
}

// FromRecords converts a page of records plus its total count.
func FromRecords(records []models.Record, total int64, page int) ListResponse {
	out := ListResponse{Records: make([]RecordResponse, 0, len(records)), Total: total, Page: page}
	for _, r := range records {
		out.Records = append(out.Records, FromRecord(r))
	}
	return out
}

// FromAdvisor converts a domain advisor to its wire shape.
func FromAdvisor(a models.Advisor) AdvisorResponse {
	return AdvisorResponse{ID: a.ID, FirstName: a.FirstName, LastName: a.LastName}
}

// TierCountResponse is one per-tier progress bucket.
type TierCountResponse struct {
	Tier       string `json:"tier"`
	Completed  int    `json:"completed"`
	InProgress int    `json:"in_progress"`
	Pending    int    `json:"pending"`
	Overdue    int    `json:"overdue"`
}

// GroupStatsResponse is one facility or area rollup.
type GroupStatsResponse struct {
	Name       string  `json:"name"`
	Total      int     `json:"total"`
	Completed  int     `json:"completed"`
	InProgress int     `json:"in_progress"`
	Awaiting   int     `json:"awaiting"`
	Score      float64 `json:"score"`
}

// RankingsResponse carries best and worst groups, each best-or-worst first.
type RankingsResponse struct {
	Top    []GroupStatsResponse `json:"top"`
	Bottom []GroupStatsResponse `json:"bottom"`
}

// TrendResponse is one calendar month of trend data.
type TrendResponse struct {
	Month       string `json:"month"`
	Completions int    `json:"completions"`
	Starts      int    `json:"starts"`
}

// SummaryResponse is the scalar dashboard payload.
type SummaryResponse struct {
	ActiveSessions    int     `json:"active_sessions"`
	OverdueCount      int     `json:"overdue_count"`
	RecentCompletions int     `json:"recent_completions"`
	AwaitingApprovals int     `json:"awaiting_approvals"`
	Efficiency        float64 `json:"efficiency"`
}

// OverviewResponse is the wire shape of the full dashboard overview.
type OverviewResponse struct {
	TierCounts []TierCountResponse `json:"tier_counts"`
	Facilities RankingsResponse    `json:"facilities"`
	Areas      RankingsResponse    `json:"areas"`
	Trends     []TrendResponse     `json:"trends"`
	Summary    SummaryResponse     `json:"summary"`
}

// FromOverview converts the service overview to its wire shape.
func FromOverview(o service.Overview) OverviewResponse {
	return OverviewResponse{
		TierCounts: FromTierCounts(o.TierCounts),
		Facilities: FromRankings(o.Facilities),
		Areas:      FromRankings(o.Areas),
		Trends:     FromTrends(o.Trends),
		Summary:    FromSummary(o.Summary),
	}
}

func FromTierCounts(counts []analytics.TierCount) []TierCountResponse {
	out := make([]TierCountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, TierCountResponse{
			Tier:       c.Tier.String(),
			Completed:  c.Completed,
			InProgress: c.InProgress,
			Pending:    c.Pending,
			Overdue:    c.Overdue,
		})
	}
	return out
}

func FromGroupStats(stats []analytics.GroupStats) []GroupStatsResponse {
	out := make([]GroupStatsResponse, 0, len(stats))
	for _, g := range stats {
		out = append(out, GroupStatsResponse{
			Name:       g.Name,
			Total:      g.Total,
			Completed:  g.Completed,
			InProgress: g.InProgress,
			Awaiting:   g.Awaiting,
			Score:      g.Score,
		})
	}
	return out
}

func FromRankings(r analytics.Rankings) RankingsResponse {
	return RankingsResponse{Top: FromGroupStats(r.Top), Bottom: FromGroupStats(r.Bottom)}
}

func FromTrends(buckets []analytics.MonthBucket) []TrendResponse {
	out := make([]TrendResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, TrendResponse{Month: b.Month, Completions: b.Completions, Starts: b.Starts})
	}
	return out
}

func FromSummary(s analytics.Summary) SummaryResponse {
	return SummaryResponse{
		ActiveSessions:    s.ActiveSessions,
		OverdueCount:      s.OverdueCount,
		RecentCompletions: s.RecentCompletions,
		AwaitingApprovals: s.AwaitingApprovals,
		Efficiency:        s.Efficiency,
	}
}

func wireDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func wireDates(m map[models.ArtifactKey]time.Time) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[string(k)] = wireDate(v)
	}
	return out
}

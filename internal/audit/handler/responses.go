package handler

import (
	"time"

	"tierboard/internal/audit"
)

// EventResponse is the wire shape of one audit event.
type EventResponse struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Actor          string    `json:"actor"`
	Action         string    `json:"action"`
	RecordID       int64     `json:"record_id,omitempty"`
	EmployeeNumber string    `json:"employee_number,omitempty"`
	EmployeeName   string    `json:"employee_name,omitempty"`
	Tier           string    `json:"tier,omitempty"`
	Field          string    `json:"field,omitempty"`
	OldValue       string    `json:"old_value,omitempty"`
	NewValue       string    `json:"new_value,omitempty"`
	Details        string    `json:"details,omitempty"`
	SourceAddress  string    `json:"source_address,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
}

// ListResponse wraps an event page with its total match count.
type ListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int64           `json:"total"`
}

// StatsResponse is the wire shape of trail statistics.
type StatsResponse struct {
	ActionCounts map[string]int64   `json:"action_counts"`
	DailyCounts  []DayCountResponse `json:"daily_counts"`
	TopActors    []ActorResponse    `json:"top_actors"`
}

type DayCountResponse struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type ActorResponse struct {
	Actor string `json:"actor"`
	Count int64  `json:"count"`
}

func fromEvents(events []audit.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			ID:             e.ID.String(),
			Timestamp:      e.Timestamp,
			Actor:          e.Actor,
			Action:         string(e.Action),
			RecordID:       e.RecordID,
			EmployeeNumber: e.EmployeeNumber,
			EmployeeName:   e.EmployeeName,
			Tier:           e.Tier,
			Field:          e.Field,
			OldValue:       e.OldValue,
			NewValue:       e.NewValue,
			Details:        e.Details,
			SourceAddress:  e.SourceAddress,
			UserAgent:      e.UserAgent,
		})
	}
	return out
}

func fromStats(s audit.Stats) StatsResponse {
	out := StatsResponse{ActionCounts: make(map[string]int64, len(s.ActionCounts))}
	for action, n := range s.ActionCounts {
		out.ActionCounts[string(action)] = n
	}
	for _, d := range s.DailyCounts {
		out.DailyCounts = append(out.DailyCounts, DayCountResponse{Date: d.Date, Count: d.Count})
	}
	for _, a := range s.TopActors {
		out.TopActors = append(out.TopActors, ActorResponse{Actor: a.Actor, Count: a.Count})
	}
	return out
}

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"tierboard/internal/certification/models"
	"tierboard/internal/certification/service"
	"tierboard/internal/certification/store"
	dErrors "tierboard/pkg/domainerrors"
)

const dateLayout = "2006-01-02"

// parseFindParams maps query parameters onto a FindParams. Unknown values are
// rejected by the service's allow-list validation, not here; this function
// only does shape conversion.
func parseFindParams(r *http.Request) (store.FindParams, error) {
	q := r.URL.Query()
	params := store.FindParams{
		Area:      strings.TrimSpace(q.Get("area")),
		Query:     strings.TrimSpace(q.Get("q")),
		JobTitle:  strings.TrimSpace(q.Get("job_title")),
		DateField: strings.TrimSpace(q.Get("date_field")),
		Status:    store.StatusFilter(q.Get("status")),
		SortBy:    q.Get("sort"),
	}

	if tier := q.Get("tier"); tier != "" && tier != "all" {
		t, err := models.ParseTier(tier)
		if err != nil {
			return store.FindParams{}, dErrors.Newf(dErrors.CodeBadRequest, "unknown tier %q", tier)
		}
		params.Tier = &t
	}
	for _, f := range q["facility"] {
		if f = strings.TrimSpace(f); f != "" {
			params.Facilities = append(params.Facilities, f)
		}
	}
	if v := q.Get("date_value"); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return store.FindParams{}, dErrors.Newf(dErrors.CodeBadRequest, "malformed date %q", v)
		}
		params.DateValue = d
	}

	var err error
	if params.Page, err = intParam(q.Get("page")); err != nil {
		return store.FindParams{}, err
	}
	if params.Limit, err = intParam(q.Get("limit")); err != nil {
		return store.FindParams{}, err
	}
	return params, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "malformed numeric parameter %q", raw)
	}
	return n, nil
}

// pathID extracts the numeric record ID from the route.
func pathID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "malformed record id %q", raw)
	}
	return id, nil
}

// AssignRequest is the HTTP request body for POST /records.
type AssignRequest struct {
	EmployeeNumber string `json:"employee_number"`
	Tier           string `json:"tier"`
	Name           string `json:"name"`
	Facility       string `json:"facility"`
	Area           string `json:"area"`
	JobTitle       string `json:"job_title"`
	AssignedDate   string `json:"assigned_date,omitempty"`

	parsed service.AssignParams
}

// Validate validates and parses the request.
func (r *AssignRequest) Validate() error {
	r.EmployeeNumber = strings.TrimSpace(r.EmployeeNumber)
	r.Name = strings.TrimSpace(r.Name)
	if r.EmployeeNumber == "" {
		return dErrors.New(dErrors.CodeBadRequest, "employee_number is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	tier, err := models.ParseTier(r.Tier)
	if err != nil {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown tier %q", r.Tier)
	}

	r.parsed = service.AssignParams{
		EmployeeNumber: r.EmployeeNumber,
		Tier:           tier,
		Name:           r.Name,
		Facility:       strings.TrimSpace(r.Facility),
		Area:           strings.TrimSpace(r.Area),
		JobTitle:       strings.TrimSpace(r.JobTitle),
	}
	if r.AssignedDate != "" {
		d, err := time.Parse(dateLayout, r.AssignedDate)
		if err != nil {
			return dErrors.Newf(dErrors.CodeBadRequest, "malformed assigned_date %q", r.AssignedDate)
		}
		r.parsed.AssignedDate = d
	}
	return nil
}

// Parsed returns the validated assignment parameters.
func (r *AssignRequest) Parsed() service.AssignParams { return r.parsed }

// ArtifactRequest is the body for schedule/complete/edit-date operations.
type ArtifactRequest struct {
	Artifact string `json:"artifact"`
	Date     string `json:"date,omitempty"`

	parsedDate time.Time
}

// Validate checks shape only; artifact registry membership is the service's
// responsibility.
func (r *ArtifactRequest) Validate() error {
	r.Artifact = strings.TrimSpace(r.Artifact)
	if r.Artifact == "" {
		return dErrors.New(dErrors.CodeBadRequest, "artifact is required")
	}
	if r.Date != "" {
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return dErrors.Newf(dErrors.CodeBadRequest, "malformed date %q", r.Date)
		}
		r.parsedDate = d
	}
	return nil
}

// ParsedDate returns the validated date; zero when omitted.
func (r *ArtifactRequest) ParsedDate() time.Time { return r.parsedDate }

// ConferenceRequest is the body for POST /records/{id}/conference.
type ConferenceRequest struct {
	Date string `json:"date,omitempty"`

	parsedDate time.Time
}

func (r *ConferenceRequest) Validate() error {
	if r.Date != "" {
		d, err := time.Parse(dateLayout, r.Date)
		if err != nil {
			return dErrors.Newf(dErrors.CodeBadRequest, "malformed date %q", r.Date)
		}
		r.parsedDate = d
	}
	return nil
}

func (r *ConferenceRequest) ParsedDate() time.Time { return r.parsedDate }

// NotesRequest is the body for PUT /records/{id}/notes.
type NotesRequest struct {
	Notes string `json:"notes"`
}

func (r *NotesRequest) Validate() error { return nil }

// AdvisorAssignRequest is the body for PUT /records/{id}/advisor.
type AdvisorAssignRequest struct {
	AdvisorID int64 `json:"advisor_id"`
}

func (r *AdvisorAssignRequest) Validate() error {
	if r.AdvisorID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "advisor_id is required")
	}
	return nil
}

// AdvisorCreateRequest is the body for POST /advisors.
type AdvisorCreateRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r *AdvisorCreateRequest) Validate() error {
	if strings.TrimSpace(r.FirstName) == "" || strings.TrimSpace(r.LastName) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "first_name and last_name are required")
	}
	return nil
}

// Package handler wires certification endpoints to the certification service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tierboard/internal/audit"
	"tierboard/internal/certification/analytics"
	"tierboard/internal/certification/models"
	"tierboard/internal/certification/service"
	"tierboard/internal/certification/store"
	dErrors "tierboard/pkg/domainerrors"
	"tierboard/pkg/httputil"
	"tierboard/pkg/requestcontext"
)

// Service defines the certification operations the handler needs.
type Service interface {
	GetRecords(ctx context.Context, params store.FindParams) ([]models.Record, int64, error)
	GetUniqueRecords(ctx context.Context, params store.FindParams) ([]models.Record, int64, error)
	GetRecordByID(ctx context.Context, id int64) (models.Record, error)
	GetTierHistory(ctx context.Context, employeeNumber string) ([]models.Record, error)
	GetReadyForTier(ctx context.Context, target models.Tier, params store.FindParams) ([]models.Record, int64, error)

	AssignTier(ctx context.Context, p service.AssignParams) (models.Record, error)
	ScheduleArtifact(ctx context.Context, id int64, artifactKey string, date time.Time) error
	CompleteArtifact(ctx context.Context, id int64, artifactKey string, date time.Time) error
	EditCompletedDate(ctx context.Context, id int64, artifactKey string, newDate time.Time) error
	CompleteConference(ctx context.Context, id int64, date time.Time) error
	ApproveConference(ctx context.Context, id int64) error
	RejectConference(ctx context.Context, id int64) error
	AwardTier(ctx context.Context, id int64) error
	UpdateNotes(ctx context.Context, id int64, text string) error
	UpdateAdvisor(ctx context.Context, id int64, advisorID int64) error
	AddAdvisor(ctx context.Context, firstName, lastName string) (models.Advisor, error)
	ListAdvisors(ctx context.Context) ([]models.Advisor, error)

	GetDashboardSummary(ctx context.Context) (analytics.Summary, error)
	GetAnalyticsOverview(ctx context.Context, params store.FindParams) (service.Overview, error)
	GetFacilityPerformance(ctx context.Context, params store.FindParams) ([]analytics.GroupStats, error)
	GetAreaPerformance(ctx context.Context, params store.FindParams) ([]analytics.GroupStats, error)
	GetMonthlyTrends(ctx context.Context, params store.FindParams) ([]analytics.MonthBucket, error)
	GetCertificationProgress(ctx context.Context, params store.FindParams) ([]analytics.TierCount, error)
	GetRecentActivity(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler wires certification endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a certification handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts certification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/records", h.handleGetRecords)
	r.Get("/records/unique", h.handleGetUniqueRecords)
	r.Post("/records", h.handleAssign)
	r.Get("/records/{id}", h.handleGetRecord)
	r.Post("/records/{id}/schedule", h.handleSchedule)
	r.Post("/records/{id}/complete", h.handleComplete)
	r.Post("/records/{id}/completed-date", h.handleEditCompletedDate)
	r.Post("/records/{id}/conference", h.handleConference)
	r.Post("/records/{id}/approve", h.handleApprove)
	r.Post("/records/{id}/reject", h.handleReject)
	r.Post("/records/{id}/award", h.handleAward)
	r.Put("/records/{id}/notes", h.handleNotes)
	r.Put("/records/{id}/advisor", h.handleAssignAdvisor)

	r.Get("/employees/{employeeNumber}/history", h.handleTierHistory)
	r.Get("/ready/{tier}", h.handleReadyForTier)

	r.Post("/advisors", h.handleAddAdvisor)
	r.Get("/advisors", h.handleListAdvisors)

	r.Get("/dashboard/summary", h.handleSummary)
	r.Get("/analytics/overview", h.handleOverview)
	r.Get("/analytics/facilities", h.handleFacilities)
	r.Get("/analytics/areas", h.handleAreas)
	r.Get("/analytics/trends", h.handleTrends)
	r.Get("/analytics/progress", h.handleProgress)
	r.Get("/activity/recent", h.handleRecentActivity)
}

func (h *Handler) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.GetRecords)
}

func (h *Handler) handleGetUniqueRecords(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.GetUniqueRecords)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, query func(context.Context, store.FindParams) ([]models.Record, int64, error)) {
	params, err := parseFindParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, total, err := query(r.Context(), params)
	if err != nil {
		h.logError(r, "record listing failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(records, total, params.Normalize().Page))
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.GetRecordByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

func (h *Handler) handleTierHistory(w http.ResponseWriter, r *http.Request) {
	employee := strings.TrimSpace(chi.URLParam(r, "employeeNumber"))
	records, err := h.service.GetTierHistory(r.Context(), employee)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(records, int64(len(records)), 1))
}

func (h *Handler) handleReadyForTier(w http.ResponseWriter, r *http.Request) {
	tier, err := models.ParseTier(chi.URLParam(r, "tier"))
	if err != nil {
		httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "unknown tier %q", chi.URLParam(r, "tier")))
		return
	}
	params, err := parseFindParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, total, err := h.service.GetReadyForTier(r.Context(), tier, params)
	if err != nil {
		h.logError(r, "readiness query failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(records, total, params.Normalize().Page))
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[AssignRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.service.AssignTier(r.Context(), req.Parsed())
	if err != nil {
		h.logError(r, "tier assignment failed", err)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "tier assigned",
		"request_id", requestcontext.RequestID(r.Context()),
		"employee_number", rec.EmployeeNumber,
		"tier", rec.Tier.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

func (h *Handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	h.artifactOp(w, r, "artifact scheduled", func(ctx context.Context, id int64, req *ArtifactRequest) error {
		if req.ParsedDate().IsZero() {
			return dErrors.New(dErrors.CodeBadRequest, "date is required")
		}
		return h.service.ScheduleArtifact(ctx, id, req.Artifact, req.ParsedDate())
	})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.artifactOp(w, r, "artifact completed", func(ctx context.Context, id int64, req *ArtifactRequest) error {
		return h.service.CompleteArtifact(ctx, id, req.Artifact, req.ParsedDate())
	})
}

func (h *Handler) handleEditCompletedDate(w http.ResponseWriter, r *http.Request) {
	h.artifactOp(w, r, "completed date edited", func(ctx context.Context, id int64, req *ArtifactRequest) error {
		if req.ParsedDate().IsZero() {
			return dErrors.New(dErrors.CodeBadRequest, "date is required")
		}
		return h.service.EditCompletedDate(ctx, id, req.Artifact, req.ParsedDate())
	})
}

func (h *Handler) artifactOp(w http.ResponseWriter, r *http.Request, logMsg string, op func(context.Context, int64, *ArtifactRequest) error) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[ArtifactRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := op(r.Context(), id, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), logMsg,
		"request_id", requestcontext.RequestID(r.Context()),
		"record_id", id,
		"artifact", req.Artifact,
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleConference(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[ConferenceRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.CompleteConference(r.Context(), id, req.ParsedDate()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.recordOp(w, r, h.service.ApproveConference)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.recordOp(w, r, h.service.RejectConference)
}

func (h *Handler) handleAward(w http.ResponseWriter, r *http.Request) {
	h.recordOp(w, r, h.service.AwardTier)
}

func (h *Handler) recordOp(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) error) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := op(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleNotes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[NotesRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.UpdateNotes(r.Context(), id, req.Notes); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAssignAdvisor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[AdvisorAssignRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.UpdateAdvisor(r.Context(), id, req.AdvisorID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAddAdvisor(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[AdvisorCreateRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	adv, err := h.service.AddAdvisor(r.Context(), req.FirstName, req.LastName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromAdvisor(adv))
}

func (h *Handler) handleListAdvisors(w http.ResponseWriter, r *http.Request) {
	advisors, err := h.service.ListAdvisors(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]AdvisorResponse, 0, len(advisors))
	for _, a := range advisors {
		out = append(out, FromAdvisor(a))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetDashboardSummary(r.Context())
	if err != nil {
		h.logError(r, "dashboard summary failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSummary(summary))
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	params, err := parseFindParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	overview, err := h.service.GetAnalyticsOverview(r.Context(), params)
	if err != nil {
		h.logError(r, "analytics overview failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromOverview(overview))
}

func (h *Handler) handleFacilities(w http.ResponseWriter, r *http.Request) {
	h.groupStats(w, r, h.service.GetFacilityPerformance)
}

func (h *Handler) handleAreas(w http.ResponseWriter, r *http.Request) {
	h.groupStats(w, r, h.service.GetAreaPerformance)
}

func (h *Handler) groupStats(w http.ResponseWriter, r *http.Request, query func(context.Context, store.FindParams) ([]analytics.GroupStats, error)) {
	params, err := parseFindParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	stats, err := query(r.Context(), params)
	if err != nil {
		h.logError(r, "group performance failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromGroupStats(stats))
}

func (h *Handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	params, err := parseFindParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	trends, err := h.service.GetMonthlyTrends(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTrends(trends))
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	params, err := parseFindParams(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	counts, err := h.service.GetCertificationProgress(r.Context(), params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTierCounts(counts))
}

func (h *Handler) handleRecentActivity(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if limit == 0 {
		limit = 20
	}
	events, err := h.service.GetRecentActivity(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromEvents(events))
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		"request_id", requestcontext.RequestID(r.Context()),
		"error", err,
	)
}

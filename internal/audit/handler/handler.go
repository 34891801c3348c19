// Package handler wires audit trail endpoints to the service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"tierboard/internal/audit"
	dErrors "tierboard/pkg/domainerrors"
	"tierboard/pkg/httputil"
	"tierboard/pkg/requestcontext"
)

// Service defines the audit read operations the handler needs.
type Service interface {
	GetAuditLog(ctx context.Context, f audit.Filter, page, limit int) ([]audit.Event, int64, error)
	GetAuditActors(ctx context.Context) ([]string, error)
	GetAuditStats(ctx context.Context) (audit.Stats, error)
}

// Handler wires audit endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an audit handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit/events", h.handleEvents)
	r.Get("/audit/actors", h.handleActors)
	r.Get("/audit/stats", h.handleStats)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	f, page, limit, err := parseListQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, total, err := h.service.GetAuditLog(r.Context(), f, page, limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "audit listing failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ListResponse{
		Events: fromEvents(events),
		Total:  total,
	})
}

func (h *Handler) handleActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.service.GetAuditActors(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if actors == nil {
		actors = []string{}
	}
	httputil.WriteJSON(w, http.StatusOK, actors)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetAuditStats(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromStats(stats))
}

func parseListQuery(r *http.Request) (audit.Filter, int, int, error) {
	q := r.URL.Query()
	f := audit.Filter{
		Actor:          strings.TrimSpace(q.Get("actor")),
		Action:         audit.Action(strings.TrimSpace(q.Get("action"))),
		EmployeeNumber: strings.TrimSpace(q.Get("employee_number")),
		Tier:           strings.TrimSpace(q.Get("tier")),
		Query:          strings.TrimSpace(q.Get("q")),
	}

	var err error
	if f.From, err = timeParam(q.Get("from")); err != nil {
		return audit.Filter{}, 0, 0, err
	}
	if f.To, err = timeParam(q.Get("to")); err != nil {
		return audit.Filter{}, 0, 0, err
	}

	page, err := intParam(q.Get("page"))
	if err != nil {
		return audit.Filter{}, 0, 0, err
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		return audit.Filter{}, 0, 0, err
	}
	return f, page, limit, nil
}

func timeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeBadRequest, "malformed time %q", raw)
	}
	return t, nil
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

package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tierboard/internal/audit"
	auditmemory "tierboard/internal/audit/store/memory"
	"tierboard/internal/certification/service"
	"tierboard/internal/certification/store"
	"tierboard/internal/platform/middleware"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	mem := store.NewMemory()
	trail := auditmemory.New()
	svc := service.New(mem, mem, trail, audit.NewWriter(trail))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Use(middleware.RequestContext)
	New(svc, logger).Register(r)
	return r
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

type errorEnvelope struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func assign(t *testing.T, router http.Handler, employee, tier string) RecordResponse {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/records", map[string]string{
		"employee_number": employee,
		"tier":            tier,
		"name":            "Employee " + employee,
		"facility":        "North",
		"area":            "NICU",
		"job_title":       "RN",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	return decodeBody[RecordResponse](t, rec)
}

func TestAssignAndFetchRecord(t *testing.T) {
	router := newRouter(t)

	created := assign(t, router, "E100", "tier2")
	assert.NotZero(t, created.ID)
	assert.Equal(t, "E100", created.EmployeeNumber)
	assert.Equal(t, "tier2", created.Tier)
	assert.Equal(t, "awaiting", created.Approval)
	assert.False(t, created.Awarded)

	rec := do(t, router, http.MethodGet, "/records/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decodeBody[RecordResponse](t, rec)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.EmployeeNumber, fetched.EmployeeNumber)

	listRec := do(t, router, http.MethodGet, "/records", nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	list := decodeBody[ListResponse](t, listRec)
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, 1, list.Page)
	require.Len(t, list.Records, 1)
}

func TestAssignValidation(t *testing.T) {
	router := newRouter(t)

	t.Run("unknown tier", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/records", map[string]string{
			"employee_number": "E1",
			"tier":            "tier9",
			"name":            "Someone",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeBody[errorEnvelope](t, rec)
		assert.Equal(t, "bad_request", env.Error)
		assert.Contains(t, env.ErrorDescription, "tier")
	})

	t.Run("missing employee number", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/records", map[string]string{
			"tier": "tier1",
			"name": "Someone",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeBody[errorEnvelope](t, rec)
		assert.Equal(t, "bad_request", env.Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/records", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRecordLookupErrors(t *testing.T) {
	router := newRouter(t)

	t.Run("unknown record", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/records/999", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		env := decodeBody[errorEnvelope](t, rec)
		assert.Equal(t, "not_found", env.Error)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/records/abc", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestArtifactEndpoints(t *testing.T) {
	router := newRouter(t)
	created := assign(t, router, "E200", "tier1")
	base := fmt.Sprintf("/records/%d", created.ID)

	t.Run("schedule requires a date", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, base+"/schedule", map[string]string{
			"artifact": "safetyVideo",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeBody[errorEnvelope](t, rec)
		assert.Contains(t, env.ErrorDescription, "date")
	})

	t.Run("unknown artifact rejected", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, base+"/complete", map[string]string{
			"artifact": "notes; DROP TABLE",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		env := decodeBody[errorEnvelope](t, rec)
		assert.Equal(t, "bad_request", env.Error)
	})

	t.Run("schedule then complete", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, base+"/schedule", map[string]string{
			"artifact": "safetyVideo",
			"date":     "2025-01-10",
		})
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, router, http.MethodPost, base+"/complete", map[string]string{
			"artifact": "safetyVideo",
			"date":     "2025-01-11",
		})
		require.Equal(t, http.StatusNoContent, rec.Code)

		getRec := do(t, router, http.MethodGet, base, nil)
		require.Equal(t, http.StatusOK, getRec.Code)
		fetched := decodeBody[RecordResponse](t, getRec)
		assert.Equal(t, "2025-01-11", fetched.Completed["safetyVideo"])
	})
}

func TestReadyForTierRejectsUnknownTier(t *testing.T) {
	router := newRouter(t)
	rec := do(t, router, http.MethodGet, "/ready/bogus", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeBody[errorEnvelope](t, rec)
	assert.Equal(t, "bad_request", env.Error)
}

func TestAdvisorEndpoints(t *testing.T) {
	router := newRouter(t)
	assign(t, router, "E300", "tier1")

	rec := do(t, router, http.MethodPost, "/advisors", map[string]string{
		"first_name": "Dana",
		"last_name":  "Reyes",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	adv := decodeBody[AdvisorResponse](t, rec)
	assert.NotZero(t, adv.ID)
	assert.Equal(t, "Dana", adv.FirstName)

	listRec := do(t, router, http.MethodGet, "/advisors", nil)
	require.Equal(t, http.StatusOK, listRec.Code)
	advisors := decodeBody[[]AdvisorResponse](t, listRec)
	require.Len(t, advisors, 1)

	assignRec := do(t, router, http.MethodPut, "/records/1/advisor", map[string]int64{
		"advisor_id": adv.ID,
	})
	require.Equal(t, http.StatusNoContent, assignRec.Code)

	missingRec := do(t, router, http.MethodPut, "/records/1/advisor", map[string]int64{
		"advisor_id": 42,
	})
	require.Equal(t, http.StatusNotFound, missingRec.Code)
}

func TestRecentActivityFeed(t *testing.T) {
	router := newRouter(t)
	assign(t, router, "E400", "tier1")

	rec := do(t, router, http.MethodGet, "/activity/recent", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decodeBody[[]ActivityResponse](t, rec)
	require.NotEmpty(t, feed)
	assert.Equal(t, "tier_assigned", feed[0].Action)
	assert.Equal(t, "E400", feed[0].EmployeeNumber)
}

func TestDashboardSummaryEndpoint(t *testing.T) {
	router := newRouter(t)
	assign(t, router, "E500", "tier1")

	rec := do(t, router, http.MethodGet, "/dashboard/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[SummaryResponse](t, rec)
	assert.Equal(t, 1, summary.ActiveSessions)
}

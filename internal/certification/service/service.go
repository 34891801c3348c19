// Package service orchestrates certification progression: it validates
// caller input, drives the persistence gateway, deduplicates through the
// resolver, applies progression rules, and appends best-effort audit events.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tierboard/internal/audit"
	"tierboard/internal/certification/analytics"
	"tierboard/internal/certification/metrics"
	"tierboard/internal/certification/models"
	"tierboard/internal/certification/progression"
	"tierboard/internal/certification/resolve"
	"tierboard/internal/certification/store"
	dErrors "tierboard/pkg/domainerrors"
	"tierboard/pkg/sentinel"
)

// RecordStore is the persistence dependency for certification records.
type RecordStore interface {
	Query(ctx context.Context, params store.FindParams) ([]models.Record, int64, error)
	GetByID(ctx context.Context, id int64) (models.Record, error)
	TierHistory(ctx context.Context, employeeNumber string) ([]models.Record, error)
	Insert(ctx context.Context, rec models.Record) (models.Record, error)
	Mutate(ctx context.Context, id int64, fields models.FieldSet) error
}

// AdvisorStore is the persistence dependency for advisors.
type AdvisorStore interface {
	AddAdvisor(ctx context.Context, adv models.Advisor) (models.Advisor, error)
	GetAdvisor(ctx context.Context, id int64) (models.Advisor, error)
	ListAdvisors(ctx context.Context) ([]models.Advisor, error)
}

// AuditRecorder appends one event best-effort; it never returns an error.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Event)
}

// Service exposes every certification operation to the transport layer.
type Service struct {
	records  RecordStore
	advisors AdvisorStore
	trail    audit.Trail
	recorder AuditRecorder

	eval   *progression.Evaluator
	engine *analytics.Engine
	cache  *analytics.ResultCache

	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithEvaluator replaces the default evaluator, e.g. with configured SLAs.
func WithEvaluator(eval *progression.Evaluator) Option {
	return func(s *Service) {
		s.eval = eval
	}
}

// WithCache enables the analytics result cache.
func WithCache(c *analytics.ResultCache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// New constructs a Service. The trail handles audit reads; the recorder
// handles best-effort audit writes and is typically an *audit.Writer over the
// same trail.
func New(records RecordStore, advisors AdvisorStore, trail audit.Trail, recorder AuditRecorder, opts ...Option) *Service {
	s := &Service{
		records:  records,
		advisors: advisors,
		trail:    trail,
		recorder: recorder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.eval == nil {
		s.eval = progression.New()
	}
	s.engine = analytics.New(s.eval)
	return s
}

// GetRecords returns raw rows matching the filter, paginated, plus the total
// match count. No deduplication: historical rows are visible here.
func (s *Service) GetRecords(ctx context.Context, params store.FindParams) ([]models.Record, int64, error) {
	if err := validateParams(params); err != nil {
		return nil, 0, err
	}
	start := time.Now()
	records, total, err := s.records.Query(ctx, params)
	s.metrics.ObserveQueryLatency("records", time.Since(start))
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return records, total, nil
}

// GetUniqueRecords returns one canonical row per employee. Deduplication runs
// over the full filtered set, so the total count reflects canonical rows, not
// raw rows; pagination is applied after resolving.
func (s *Service) GetUniqueRecords(ctx context.Context, params store.FindParams) ([]models.Record, int64, error) {
	if err := validateParams(params); err != nil {
		return nil, 0, err
	}
	all, err := s.snapshot(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	canonical := resolve.Resolve(all, resolve.KeyByEmployee)
	// The resolver orders by its grouping key; restore the requested sort
	// before paginating.
	store.SortRecords(canonical, params.SortBy)
	return paginate(canonical, params), int64(len(canonical)), nil
}

func (s *Service) GetRecordByID(ctx context.Context, id int64) (models.Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		return models.Record{}, notFoundOr(err, "record not found")
	}
	return rec, nil
}

// GetTierHistory returns every row ever written for an employee across all
// tiers, including superseded historical rows.
func (s *Service) GetTierHistory(ctx context.Context, employeeNumber string) ([]models.Record, error) {
	if employeeNumber == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "employee number is required")
	}
	records, err := s.records.TierHistory(ctx, employeeNumber)
	if err != nil {
		return nil, storageErr(err)
	}
	return records, nil
}

// GetReadyForTier returns employees whose canonical target-tier record is
// ready to be awarded, given the lower-tier chain. Readiness runs over the
// full canonical set; pagination applies afterwards.
func (s *Service) GetReadyForTier(ctx context.Context, target models.Tier, params store.FindParams) ([]models.Record, int64, error) {
	if !target.Valid() {
		return nil, 0, dErrors.Newf(dErrors.CodeBadRequest, "unknown tier %d", int(target))
	}
	if err := validateParams(params); err != nil {
		return nil, 0, err
	}

	// The chain check needs lower tiers, so the snapshot ignores any tier
	// filter the caller set.
	params.Tier = nil
	all, err := s.snapshot(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	canonical := resolve.Resolve(all, resolve.KeyByEmployeeTier)
	ready := s.eval.ReadyForTier(canonical, target)
	return paginate(ready, params), int64(len(ready)), nil
}

func (s *Service) ListAdvisors(ctx context.Context) ([]models.Advisor, error) {
	advisors, err := s.advisors.ListAdvisors(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	return advisors, nil
}

// snapshot fetches the full filtered record set in one bulk query.
func (s *Service) snapshot(ctx context.Context, params store.FindParams) ([]models.Record, error) {
	params.Bulk = true
	params.Page = 1
	params.Limit = store.MaxBulkLimit

	start := time.Now()
	records, _, err := s.records.Query(ctx, params)
	s.metrics.ObserveQueryLatency("snapshot", time.Since(start))
	if err != nil {
		return nil, storageErr(err)
	}
	return records, nil
}

func validateParams(params store.FindParams) error {
	if !params.Status.Valid() {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown status filter %q", string(params.Status))
	}
	if params.DateField != "" {
		if _, ok := models.DateFilterColumn(params.Tier, params.DateField); !ok {
			return dErrors.Newf(dErrors.CodeBadRequest, "unknown date field %q", params.DateField)
		}
	}
	if params.Tier != nil && !params.Tier.Valid() {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown tier %d", int(*params.Tier))
	}
	return nil
}

// paginate slices an already-resolved result set by the caller's page and
// limit, using the interactive caps.
func paginate(records []models.Record, params store.FindParams) []models.Record {
	params.Bulk = false
	params = params.Normalize()
	start := params.Offset()
	if start >= len(records) {
		return []models.Record{}
	}
	end := start + params.Limit
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// storageErr maps store failures onto caller-facing codes. NotFound is not
// expected here; list queries return empty sets instead.
func storageErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "storage timed out")
	}
	if errors.Is(err, sentinel.ErrInvalidField) {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "field not permitted for this record's tier")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "storage failure")
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, msg)
	}
	return storageErr(err)
}

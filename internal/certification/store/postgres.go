package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tierboard/internal/certification/models"
	"tierboard/pkg/sentinel"
)

//go:embed schema.sql
var schemaSQL string

// Postgres implements RecordStore and AdvisorStore over a pgx pool. The pool
// is constructed and closed by the process entry point and injected here; the
// store never owns connection lifecycle.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an injected pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema applies the embedded schema. Idempotent; used at startup and by
// integration tests.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// recordColumns lists every selected column in scan order. Artifact columns
// come from the closed registry, so the list is fixed at init.
var recordColumns = buildRecordColumns()

func buildRecordColumns() []string {
	cols := []string{
		"id", "employee_number", "tier", "name", "facility", "area",
		"job_title", "assigned_date",
	}
	for _, a := range models.AllArtifacts() {
		cols = append(cols, a.ScheduledColumn, a.CompletedColumn)
	}
	return append(cols,
		"conference_completed_date", "awaiting_approval", "awarded",
		"awarded_date", "notes", "advisor_id",
	)
}

func (s *Postgres) Query(ctx context.Context, params FindParams) ([]models.Record, int64, error) {
	params = params.Normalize()
	where, args := buildWhere(params)

	var total int64
	countQuery := "SELECT count(*) FROM certification_records" + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM certification_records%s ORDER BY %s, id LIMIT %d OFFSET %d",
		strings.Join(recordColumns, ", "), where, orderClause(params.SortBy),
		params.Limit, params.Offset(),
	)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *Postgres) GetByID(ctx context.Context, id int64) (models.Record, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM certification_records WHERE id = $1",
		strings.Join(recordColumns, ", "),
	)
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return models.Record{}, fmt.Errorf("get record: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return models.Record{}, err
	}
	if len(records) == 0 {
		return models.Record{}, sentinel.ErrNotFound
	}
	return records[0], nil
}

func (s *Postgres) TierHistory(ctx context.Context, employeeNumber string) ([]models.Record, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM certification_records WHERE employee_number = $1 ORDER BY tier, id",
		strings.Join(recordColumns, ", "),
	)
	rows, err := s.pool.Query(ctx, query, employeeNumber)
	if err != nil {
		return nil, fmt.Errorf("tier history: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Postgres) Insert(ctx context.Context, rec models.Record) (models.Record, error) {
	cols := []string{"employee_number", "tier", "name", "facility", "area", "job_title"}
	args := []any{rec.EmployeeNumber, int16(rec.Tier), rec.Name, rec.Facility, rec.Area, rec.JobTitle}
	if !rec.AssignedDate.IsZero() {
		cols = append(cols, "assigned_date")
		args = append(args, rec.AssignedDate)
	}
	cols = append(cols, "awaiting_approval")
	args = append(args, models.EncodeApproval(rec.Approval))

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(
		"INSERT INTO certification_records (%s) VALUES (%s) RETURNING id",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&rec.ID); err != nil {
		return models.Record{}, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

func (s *Postgres) Mutate(ctx context.Context, id int64, fields models.FieldSet) error {
	// The row's tier decides which fields are writable, so read it first.
	var tier int16
	err := s.pool.QueryRow(ctx, "SELECT tier FROM certification_records WHERE id = $1", id).Scan(&tier)
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load record tier: %w", err)
	}
	if err := models.ValidateFieldSet(models.Tier(tier), fields); err != nil {
		return fmt.Errorf("%w: %v", sentinel.ErrInvalidField, err)
	}

	// Field constants double as column identifiers; validation above
	// guarantees membership in the fixed allow-list, so nothing
	// caller-controlled enters the statement text.
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for f, v := range fields {
		args = append(args, fieldArg(v))
		sets = append(sets, fmt.Sprintf("%s = $%d", string(f), len(args)))
	}
	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE certification_records SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args),
	)
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mutate record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) AddAdvisor(ctx context.Context, adv models.Advisor) (models.Advisor, error) {
	err := s.pool.QueryRow(ctx,
		"INSERT INTO advisors (first_name, last_name) VALUES ($1, $2) RETURNING id",
		adv.FirstName, adv.LastName,
	).Scan(&adv.ID)
	if err != nil {
		return models.Advisor{}, fmt.Errorf("insert advisor: %w", err)
	}
	return adv, nil
}

func (s *Postgres) GetAdvisor(ctx context.Context, id int64) (models.Advisor, error) {
	var adv models.Advisor
	err := s.pool.QueryRow(ctx,
		"SELECT id, first_name, last_name FROM advisors WHERE id = $1", id,
	).Scan(&adv.ID, &adv.FirstName, &adv.LastName)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Advisor{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Advisor{}, fmt.Errorf("get advisor: %w", err)
	}
	return adv, nil
}

func (s *Postgres) ListAdvisors(ctx context.Context) ([]models.Advisor, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, first_name, last_name FROM advisors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list advisors: %w", err)
	}
	defer rows.Close()

	var out []models.Advisor
	for rows.Next() {
		var adv models.Advisor
		if err := rows.Scan(&adv.ID, &adv.FirstName, &adv.LastName); err != nil {
			return nil, fmt.Errorf("scan advisor: %w", err)
		}
		out = append(out, adv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate advisors: %w", err)
	}
	return out, nil
}

// statusPredicates maps each derived status filter to a fixed SQL fragment.
var statusPredicates = map[StatusFilter]string{
	StatusFilterAwarded:    "(awarded OR awarded_date IS NOT NULL)",
	StatusFilterInProgress: "(NOT awarded AND awarded_date IS NULL AND conference_completed_date IS NOT NULL AND awaiting_approval = FALSE)",
	StatusFilterAwaiting:   "(NOT awarded AND awarded_date IS NULL AND conference_completed_date IS NOT NULL AND awaiting_approval = TRUE)",
	StatusFilterRejected:   "(conference_completed_date IS NOT NULL AND awaiting_approval IS NULL)",
	StatusFilterAssigned:   "(NOT awarded AND awarded_date IS NULL AND conference_completed_date IS NULL AND assigned_date IS NOT NULL)",
}

// buildWhere assembles the WHERE clause. Every column identifier is a fixed
// string from an allow-list; caller values only ever appear as bind args.
func buildWhere(p FindParams) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if p.Tier != nil {
		conds = append(conds, "tier = "+arg(int16(*p.Tier)))
	}
	if len(p.Facilities) > 0 {
		conds = append(conds, "facility ILIKE ANY("+arg(p.Facilities)+")")
	}
	if p.Area != "" {
		conds = append(conds, "area ILIKE "+arg(p.Area))
	}
	if p.JobTitle != "" {
		conds = append(conds, "job_title ILIKE "+arg(p.JobTitle))
	}
	if p.Query != "" {
		pattern := "%" + p.Query + "%"
		ph := arg(pattern)
		conds = append(conds, "(name ILIKE "+ph+" OR employee_number ILIKE "+ph+")")
	}
	if p.DateField != "" && !p.DateValue.IsZero() {
		if col, ok := models.DateFilterColumn(p.Tier, p.DateField); ok {
			conds = append(conds, col+" = "+arg(p.DateValue))
		} else {
			// Unknown date fields were rejected upstream; match nothing if
			// one slips through rather than querying an arbitrary column.
			conds = append(conds, "FALSE")
		}
	}
	if pred, ok := statusPredicates[p.Status]; ok && p.Status != StatusFilterNone {
		conds = append(conds, pred)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanRecords reads rows in recordColumns order into domain records.
func scanRecords(rows pgx.Rows) ([]models.Record, error) {
	artifacts := models.AllArtifacts()
	var out []models.Record

	for rows.Next() {
		var (
			rec          models.Record
			tier         int16
			assigned     *time.Time
			artifactDstv = make([]*time.Time, 2*len(artifacts))
			conference   *time.Time
			awaiting     *bool
			awardedDate  *time.Time
		)

		dest := []any{
			&rec.ID, &rec.EmployeeNumber, &tier, &rec.Name, &rec.Facility,
			&rec.Area, &rec.JobTitle, &assigned,
		}
		for i := range artifactDstv {
			dest = append(dest, &artifactDstv[i])
		}
		dest = append(dest, &conference, &awaiting, &rec.Awarded,
			&awardedDate, &rec.Notes, &rec.AdvisorID)

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}

		rec.Tier = models.Tier(tier)
		rec.AssignedDate = deref(assigned)
		rec.ConferenceCompletedDate = deref(conference)
		rec.AwardedDate = deref(awardedDate)
		rec.Approval = models.DecodeApproval(awaiting)

		for i, a := range artifacts {
			// Only the record's own tier carries artifact data, but decoding
			// every populated column keeps scan symmetric with the schema.
			if sched := deref(artifactDstv[2*i]); !sched.IsZero() {
				if rec.Scheduled == nil {
					rec.Scheduled = make(map[models.ArtifactKey]time.Time)
				}
				rec.Scheduled[a.Key] = sched
			}
			if comp := deref(artifactDstv[2*i+1]); !comp.IsZero() {
				if rec.Completed == nil {
					rec.Completed = make(map[models.ArtifactKey]time.Time)
				}
				rec.Completed[a.Key] = comp
			}
		}

		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// fieldArg normalizes field-set values into driver-friendly arguments.
func fieldArg(v any) any {
	switch val := v.(type) {
	case models.ApprovalState:
		return models.EncodeApproval(val)
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val
	default:
		return v
	}
}

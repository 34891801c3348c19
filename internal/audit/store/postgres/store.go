// Package postgres provides the relational audit trail backend. Events live
// in a single append-only table; filtering and aggregation run in SQL.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tierboard/internal/audit"
	"tierboard/pkg/requestcontext"
)

//go:embed schema.sql
var schemaSQL string

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Store implements audit.Trail over a pgx pool. Pool lifecycle is owned by
// the process entry point.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema applies the embedded schema. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

const eventColumns = "id, ts, actor, action, record_id, employee_number, " +
	"employee_name, tier, field, old_value, new_value, details, source_address, user_agent"

func (s *Store) Append(ctx context.Context, e audit.Event) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO audit_events ("+eventColumns+") "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)",
		e.ID, e.Timestamp, e.Actor, string(e.Action), e.RecordID,
		e.EmployeeNumber, e.EmployeeName, e.Tier, e.Field,
		e.OldValue, e.NewValue, e.Details, e.SourceAddress, e.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, f audit.Filter, page, limit int) ([]audit.Event, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	where, args := buildWhere(f)

	var total int64
	if err := s.pool.QueryRow(ctx, "SELECT count(*) FROM audit_events"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit events: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM audit_events%s ORDER BY ts DESC, id DESC LIMIT %d OFFSET %d",
		eventColumns, where, limit, (page-1)*limit,
	)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var (
			e      audit.Event
			action string
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Actor, &action, &e.RecordID,
			&e.EmployeeNumber, &e.EmployeeName, &e.Tier, &e.Field,
			&e.OldValue, &e.NewValue, &e.Details, &e.SourceAddress, &e.UserAgent); err != nil {
			return nil, 0, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = audit.Action(action)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit events: %w", err)
	}
	if out == nil {
		out = []audit.Event{}
	}
	return out, total, nil
}

func (s *Store) Actors(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT DISTINCT actor FROM audit_events ORDER BY actor")
	if err != nil {
		return nil, fmt.Errorf("list audit actors: %w", err)
	}
	defer rows.Close()

	var actors []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan audit actor: %w", err)
		}
		actors = append(actors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit actors: %w", err)
	}
	return actors, nil
}

func (s *Store) Stats(ctx context.Context) (audit.Stats, error) {
	now := requestcontext.Now(ctx).UTC()
	stats := audit.Stats{ActionCounts: make(map[audit.Action]int64)}

	rows, err := s.pool.Query(ctx, "SELECT action, count(*) FROM audit_events GROUP BY action")
	if err != nil {
		return audit.Stats{}, fmt.Errorf("audit action counts: %w", err)
	}
	for rows.Next() {
		var (
			action string
			n      int64
		)
		if err := rows.Scan(&action, &n); err != nil {
			rows.Close()
			return audit.Stats{}, fmt.Errorf("scan action count: %w", err)
		}
		stats.ActionCounts[audit.Action(action)] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return audit.Stats{}, fmt.Errorf("iterate action counts: %w", err)
	}

	cutoff := now.AddDate(0, 0, -6).Truncate(24 * time.Hour)
	rows, err = s.pool.Query(ctx,
		"SELECT to_char(ts AT TIME ZONE 'UTC', 'YYYY-MM-DD'), count(*) "+
			"FROM audit_events WHERE ts >= $1 GROUP BY 1", cutoff)
	if err != nil {
		return audit.Stats{}, fmt.Errorf("audit daily counts: %w", err)
	}
	days := make(map[string]int64, 7)
	for rows.Next() {
		var (
			day string
			n   int64
		)
		if err := rows.Scan(&day, &n); err != nil {
			rows.Close()
			return audit.Stats{}, fmt.Errorf("scan daily count: %w", err)
		}
		days[day] = n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return audit.Stats{}, fmt.Errorf("iterate daily counts: %w", err)
	}
	for i := 0; i < 7; i++ {
		d := cutoff.AddDate(0, 0, i).Format("2006-01-02")
		stats.DailyCounts = append(stats.DailyCounts, audit.DayCount{Date: d, Count: days[d]})
	}

	rows, err = s.pool.Query(ctx,
		"SELECT actor, count(*) AS n FROM audit_events GROUP BY actor ORDER BY n DESC, actor LIMIT 5")
	if err != nil {
		return audit.Stats{}, fmt.Errorf("audit top actors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ac audit.ActorCount
		if err := rows.Scan(&ac.Actor, &ac.Count); err != nil {
			return audit.Stats{}, fmt.Errorf("scan top actor: %w", err)
		}
		stats.TopActors = append(stats.TopActors, ac)
	}
	if err := rows.Err(); err != nil {
		return audit.Stats{}, fmt.Errorf("iterate top actors: %w", err)
	}

	return stats, nil
}

// buildWhere assembles the WHERE clause; caller values only appear as bind
// args, never in statement text.
func buildWhere(f audit.Filter) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Actor != "" {
		conds = append(conds, "actor = "+arg(f.Actor))
	}
	if f.Action != "" {
		conds = append(conds, "action = "+arg(string(f.Action)))
	}
	if f.EmployeeNumber != "" {
		conds = append(conds, "employee_number = "+arg(f.EmployeeNumber))
	}
	if f.Tier != "" {
		conds = append(conds, "tier = "+arg(f.Tier))
	}
	if f.Query != "" {
		pattern := "%" + f.Query + "%"
		ph := arg(pattern)
		conds = append(conds, "(employee_name ILIKE "+ph+" OR field ILIKE "+ph+" OR details ILIKE "+ph+")")
	}
	if !f.From.IsZero() {
		conds = append(conds, "ts >= "+arg(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "ts <= "+arg(f.To))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

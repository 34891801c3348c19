// Package monthlog provides a redis-backed audit trail partitioned by
// calendar month.
//
// Each month owns a sorted set of row keys and a hash of event bodies. Row
// keys embed an inverted millisecond timestamp, so the sorted set's natural
// ascending lexicographic order is reverse-chronological; listing walks
// months from the current one backwards and never sorts client-side.
package monthlog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tierboard/internal/audit"
	"tierboard/pkg/requestcontext"
)

const (
	defaultLimit = 20
	maxLimit     = 100

	// Months older than this are never read. Writes beyond the horizon are
	// legal but invisible to List and Stats.
	retentionMonths = 24

	// Largest timestamp the inverted key encoding supports. Far beyond any
	// plausible event time; keys are maxUnixMillis minus the event's
	// UnixMilli, zero-padded to fixed width so string order equals numeric
	// order.
	maxUnixMillis = int64(99999999999999)
)

// Store implements audit.Trail over redis. Keys are namespaced under prefix:
//
//	<prefix>:idx:<yyyy-mm>     sorted set of row keys, all scores zero
//	<prefix>:events:<yyyy-mm>  hash: row key -> event JSON
//	<prefix>:actors            set of distinct actor identities
type Store struct {
	rdb    redis.UniversalClient
	prefix string
}

func New(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "audit"
	}
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) indexKey(month string) string  { return s.prefix + ":idx:" + month }
func (s *Store) eventsKey(month string) string { return s.prefix + ":events:" + month }
func (s *Store) actorsKey() string             { return s.prefix + ":actors" }

// rowKey inverts the timestamp so ascending lex order is newest-first. The
// event ID suffix keeps keys unique when two events share a millisecond.
func rowKey(e audit.Event) string {
	return fmt.Sprintf("%020d-%s", maxUnixMillis-e.Timestamp.UnixMilli(), e.ID.String()[:8])
}

func monthOf(t time.Time) string {
	return t.UTC().Format("2006-01")
}

func (s *Store) Append(ctx context.Context, e audit.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	month := monthOf(e.Timestamp)
	key := rowKey(e)

	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, s.indexKey(month), redis.Z{Score: 0, Member: key})
	pipe.HSet(ctx, s.eventsKey(month), key, body)
	pipe.SAdd(ctx, s.actorsKey(), e.Actor)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append audit event: %w", err)
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

	// The log has no native predicates, so matching is client-side over the
	// whole retention window; the caller still gets an exact total count.
	var matched []audit.Event
	if err := s.walk(ctx, func(e audit.Event) {
		if f.Matches(e) {
			matched = append(matched, e)
		}
	}); err != nil {
		return nil, 0, err
	}

	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []audit.Event{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *Store) Actors(ctx context.Context) ([]string, error) {
	actors, err := s.rdb.SMembers(ctx, s.actorsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list audit actors: %w", err)
	}
	return actors, nil
}

func (s *Store) Stats(ctx context.Context) (audit.Stats, error) {
	var events []audit.Event
	if err := s.walk(ctx, func(e audit.Event) {
		events = append(events, e)
	}); err != nil {
		return audit.Stats{}, err
	}
	return audit.StatsFromEvents(requestcontext.Now(ctx), events), nil
}

// walk visits every retained event, newest month first, newest event first
// within a month.
func (s *Store) walk(ctx context.Context, visit func(audit.Event)) error {
	for _, month := range retainedMonths(requestcontext.Now(ctx)) {
		keys, err := s.rdb.ZRangeByLex(ctx, s.indexKey(month), &redis.ZRangeBy{
			Min: "-", Max: "+",
		}).Result()
		if err != nil {
			return fmt.Errorf("read audit index %s: %w", month, err)
		}
		if len(keys) == 0 {
			continue
		}

		bodies, err := s.rdb.HMGet(ctx, s.eventsKey(month), keys...).Result()
		if err != nil {
			return fmt.Errorf("read audit events %s: %w", month, err)
		}
		for _, body := range bodies {
			raw, ok := body.(string)
			if !ok {
				continue
			}
			var e audit.Event
			if err := json.Unmarshal([]byte(raw), &e); err != nil {
				return fmt.Errorf("decode audit event: %w", err)
			}
			visit(e)
		}
	}
	return nil
}

var _ audit.Trail = (*Store)(nil)

// Months retained for a given anchor time, newest first. Stepping back from
// the first of the anchor's month keeps the walk stable for month-end
// anchors; AddDate on day 29-31 would normalize into the wrong month.
func retainedMonths(anchor time.Time) []string {
	anchor = anchor.UTC()
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]string, 0, retentionMonths)
	for i := 0; i < retentionMonths; i++ {
		months = append(months, monthOf(first.AddDate(0, -i, 0)))
	}
	return months
}

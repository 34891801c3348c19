package audit

import (
	"sort"
	"time"
)

const topActorLimit = 5

// StatsFromEvents aggregates trail statistics in memory, anchored at now.
// Backends without native aggregation (memory, partitioned log) share this;
// the relational backend computes the same shape in SQL.
func StatsFromEvents(now time.Time, events []Event) Stats {
	s := Stats{ActionCounts: make(map[Action]int64)}

	days := make(map[string]int64, 7)
	actors := make(map[string]int64)
	cutoff := now.UTC().AddDate(0, 0, -6).Truncate(24 * time.Hour)

	for _, e := range events {
		s.ActionCounts[e.Action]++
		actors[e.Actor]++
		if ts := e.Timestamp.UTC(); !ts.Before(cutoff) {
			days[ts.Format("2006-01-02")]++
		}
	}

	// Emit all seven days, zero-filled, oldest first.
	for i := 0; i < 7; i++ {
		d := cutoff.AddDate(0, 0, i).Format("2006-01-02")
		s.DailyCounts = append(s.DailyCounts, DayCount{Date: d, Count: days[d]})
	}

	for actor, n := range actors {
		s.TopActors = append(s.TopActors, ActorCount{Actor: actor, Count: n})
	}
	sort.Slice(s.TopActors, func(i, j int) bool {
		if s.TopActors[i].Count != s.TopActors[j].Count {
			return s.TopActors[i].Count > s.TopActors[j].Count
		}
		return s.TopActors[i].Actor < s.TopActors[j].Actor
	})
	if len(s.TopActors) > topActorLimit {
		s.TopActors = s.TopActors[:topActorLimit]
	}
	return s
}

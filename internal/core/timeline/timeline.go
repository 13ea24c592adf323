package timeline

import (
	"sort"

	"github.com/penwyp/go-timeline-mapper/internal/core/model"
)

// Connector is an inferred straight-line travel segment between two
// chronologically adjacent geolocated events of the same day. Connectors
// are recomputed on every rendering pass and never persisted.
type Connector struct {
	From model.Event
	To   model.Event
}

// GroupByDay partitions events into per-calendar-day buckets keyed by the
// stored day column. Each bucket is sorted ascending by timestamp; events
// with equal timestamps keep their input order.
func GroupByDay(events []model.Event) map[string][]model.Event {
	days := make(map[string][]model.Event)
	for _, e := range events {
		days[e.Day] = append(days[e.Day], e)
	}
	for day := range days {
		bucket := days[day]
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].Timestamp.Before(bucket[j].Timestamp)
		})
	}
	return days
}

// SortedDays returns the bucket keys in ascending calendar order.
func SortedDays(days map[string][]model.Event) []string {
	keys := make([]string, 0, len(days))
	for day := range days {
		keys = append(keys, day)
	}
	sort.Strings(keys)
	return keys
}

// Connectors walks a day's chronologically ordered events and pairs each
// geolocated event with the previous one. Events without a location are
// skipped entirely: they neither break nor create a connector. A day with
// k geolocated events yields exactly k-1 pairs.
func Connectors(dayEvents []model.Event) []Connector {
	var pairs []Connector
	var last *model.Event
	for i := range dayEvents {
		e := &dayEvents[i]
		if !e.HasLocation() {
			continue
		}
		if last != nil {
			pairs = append(pairs, Connector{From: *last, To: *e})
		}
		last = e
	}
	return pairs
}

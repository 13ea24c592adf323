package model

import (
	"fmt"
	"time"
)

// Event source values. "place" shares the note ingestion path but is kept
// distinct so the renderer can classify markers.
const (
	SourcePhoto    = "photo"
	SourceNote     = "note"
	SourcePlace    = "place"
	SourceActivity = "activity"
)

// DayLayout is the calendar-date format used for the persisted day column
// and for dashboard file names.
const DayLayout = "2006-01-02"

// Event is one timestamped, optionally geolocated record of personal
// activity. Events are written once via Upsert and never updated in place;
// the (Source, ExternalID, Path) triple is the dedup key.
type Event struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Source     string    `gorm:"not null;uniqueIndex:idx_events_identity,priority:1" json:"source"`
	Subtype    string    `json:"subtype,omitempty"`
	Timestamp  time.Time `gorm:"not null;index:idx_events_ts" json:"timestamp"`
	Day        string    `gorm:"not null;index:idx_events_day" json:"day"`
	Lat        *float64  `gorm:"index:idx_events_geo,priority:1" json:"lat,omitempty"`
	Lon        *float64  `gorm:"index:idx_events_geo,priority:2" json:"lon,omitempty"`
	Path       string    `gorm:"uniqueIndex:idx_events_identity,priority:3" json:"path,omitempty"`
	Title      string    `json:"title,omitempty"`
	Text       string    `json:"text,omitempty"`
	ExternalID string    `gorm:"column:ext_id;uniqueIndex:idx_events_identity,priority:2" json:"ext_id,omitempty"`
}

func (Event) TableName() string {
	return "events"
}

// HasLocation reports whether both coordinates are present.
func (e *Event) HasLocation() bool {
	return e.Lat != nil && e.Lon != nil
}

// DayOf derives the calendar date for a timestamp in UTC.
func DayOf(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

var knownSources = map[string]bool{
	SourcePhoto:    true,
	SourceNote:     true,
	SourcePlace:    true,
	SourceActivity: true,
}

// Validate checks a candidate event before insertion. The store rejects
// candidates individually on failure; a bad record never aborts a batch.
func (e *Event) Validate() error {
	if !knownSources[e.Source] {
		return fmt.Errorf("unknown source %q", e.Source)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	if want := DayOf(e.Timestamp); e.Day != want {
		return fmt.Errorf("day %q does not match timestamp (want %s)", e.Day, want)
	}
	// A half-present location is never recoverable; reject instead of guessing.
	if (e.Lat == nil) != (e.Lon == nil) {
		return fmt.Errorf("location requires both lat and lon")
	}
	return nil
}

// Normalize converts the timestamp to UTC so that ordering and day
// derivation are timezone independent.
func (e *Event) Normalize() {
	e.Timestamp = e.Timestamp.UTC()
}

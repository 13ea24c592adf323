package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validEvent() Event {
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return Event{
		Source:     SourceNote,
		Timestamp:  ts,
		Day:        DayOf(ts),
		Title:      "Coffee",
		ExternalID: "Coffee2024-06-01",
	}
}

func TestDayOfUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	// 05:00 on June 2nd in UTC+9 is still June 1st in UTC.
	local := time.Date(2024, 6, 2, 5, 0, 0, 0, loc)

	assert.Equal(t, "2024-06-01", DayOf(local))
}

func TestValidate(t *testing.T) {
	lat := 51.05
	lon := 3.72

	tests := []struct {
		name    string
		mutate  func(*Event)
		wantErr bool
	}{
		{name: "valid without location", mutate: func(e *Event) {}},
		{name: "valid with location", mutate: func(e *Event) { e.Lat = &lat; e.Lon = &lon }},
		{name: "unknown source", mutate: func(e *Event) { e.Source = "sensor" }, wantErr: true},
		{name: "zero timestamp", mutate: func(e *Event) { e.Timestamp = time.Time{} }, wantErr: true},
		{name: "day mismatch", mutate: func(e *Event) { e.Day = "1999-01-01" }, wantErr: true},
		{name: "lat without lon", mutate: func(e *Event) { e.Lat = &lat }, wantErr: true},
		{name: "lon without lat", mutate: func(e *Event) { e.Lon = &lon }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEvent()
			tt.mutate(&e)
			err := e.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHasLocation(t *testing.T) {
	lat := 51.05
	lon := 3.72

	e := validEvent()
	assert.False(t, e.HasLocation())

	e.Lat = &lat
	assert.False(t, e.HasLocation())

	e.Lon = &lon
	assert.True(t, e.HasLocation())
}

func TestNormalize(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	e := validEvent()
	e.Timestamp = time.Date(2024, 6, 1, 12, 0, 0, 0, loc)

	e.Normalize()

	assert.Equal(t, time.UTC, e.Timestamp.Location())
	assert.Equal(t, 10, e.Timestamp.Hour())
}

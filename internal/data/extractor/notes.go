package extractor

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/penwyp/go-timeline-mapper/internal/core/model"
	"github.com/penwyp/go-timeline-mapper/internal/util"
)

// NotesExtractor reads free-form notes from a CSV file. Expected header
// columns: date (required), plus optional time, title, text, lat, lon and
// kind ("note" or "place"). Rows missing a time default to 12:00 UTC.
type NotesExtractor struct {
	csvPath string
}

func NewNotesExtractor(csvPath string) *NotesExtractor {
	return &NotesExtractor{csvPath: csvPath}
}

func (n *NotesExtractor) Name() string {
	return "notes"
}

// Extract parses the notes file. A missing file is a skip, not an error;
// malformed rows are rejected individually.
func (n *NotesExtractor) Extract(ctx context.Context) ([]model.Event, error) {
	file, err := os.Open(n.csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			util.LogInfof("Notes file not found, skipping: %s", n.csvPath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open notes file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read notes header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["date"]; !ok {
		return nil, fmt.Errorf("notes file %s has no date column", n.csvPath)
	}

	var candidates []model.Event
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err != nil {
			break
		}
		line++

		event, err := n.parseRow(columns, record)
		if err != nil {
			util.LogWarnf("Skip notes row %d: %v", line, err)
			continue
		}
		candidates = append(candidates, event)
	}

	util.LogDebugf("Notes extraction finished: %d candidates from %s", len(candidates), n.csvPath)
	return candidates, nil
}

func field(columns map[string]int, record []string, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func (n *NotesExtractor) parseRow(columns map[string]int, record []string) (model.Event, error) {
	date := field(columns, record, "date")
	if date == "" {
		return model.Event{}, fmt.Errorf("empty date")
	}

	clock := field(columns, record, "time")
	if clock == "" {
		clock = "12:00"
	}

	ts, err := parseNoteTimestamp(date, clock)
	if err != nil {
		return model.Event{}, err
	}

	title := field(columns, record, "title")
	if title == "" {
		title = "Note"
	}

	source := model.SourceNote
	if kind := strings.ToLower(field(columns, record, "kind")); kind == model.SourcePlace {
		source = model.SourcePlace
	}

	day := model.DayOf(ts)
	event := model.Event{
		Source:     source,
		Timestamp:  ts,
		Day:        day,
		Title:      title,
		Text:       field(columns, record, "text"),
		ExternalID: title + day,
	}

	latStr := field(columns, record, "lat")
	lonStr := field(columns, record, "lon")
	if latStr != "" || lonStr != "" {
		lat, latErr := strconv.ParseFloat(latStr, 64)
		lon, lonErr := strconv.ParseFloat(lonStr, 64)
		if latErr != nil || lonErr != nil {
			return model.Event{}, fmt.Errorf("location requires both lat and lon")
		}
		event.Lat = &lat
		event.Lon = &lon
	}

	return event, nil
}

func parseNoteTimestamp(date, clock string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if ts, err := time.ParseInLocation(layout, date+" "+clock, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q %q", date, clock)
}

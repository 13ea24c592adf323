package extractor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/penwyp/go-timeline-mapper/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeNotes(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNotesExtractMissingFileIsSkip(t *testing.T) {
	n := NewNotesExtractor(filepath.Join(t.TempDir(), "absent.csv"))

	events, err := n.Extract(context.Background())

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestNotesExtract(t *testing.T) {
	path := writeNotes(t, `date,time,title,text,lat,lon,kind
2024-06-01,09:30,Coffee,espresso at the market,51.05,3.72,
2024-06-01,,Lunch,,,,
2024-06-02,18:00,Castle,,51.04,3.73,place
`)
	n := NewNotesExtractor(path)

	events, err := n.Extract(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 3)

	coffee := events[0]
	assert.Equal(t, model.SourceNote, coffee.Source)
	assert.Equal(t, time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC), coffee.Timestamp)
	assert.Equal(t, "2024-06-01", coffee.Day)
	assert.Equal(t, "Coffee", coffee.Title)
	assert.Equal(t, "espresso at the market", coffee.Text)
	require.NotNil(t, coffee.Lat)
	assert.Equal(t, 51.05, *coffee.Lat)
	assert.Equal(t, "Coffee2024-06-01", coffee.ExternalID)

	// Missing time defaults to noon UTC; missing coordinates stay nil.
	lunch := events[1]
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), lunch.Timestamp)
	assert.Nil(t, lunch.Lat)
	assert.Nil(t, lunch.Lon)

	castle := events[2]
	assert.Equal(t, model.SourcePlace, castle.Source)
}

func TestNotesExtractRejectsBadRowsIndividually(t *testing.T) {
	path := writeNotes(t, `date,time,title,lat,lon
not-a-date,09:30,Broken,,
2024-06-01,09:30,HalfLocation,51.05,
2024-06-01,10:00,Good,,
`)
	n := NewNotesExtractor(path)

	events, err := n.Extract(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Good", events[0].Title)
}

func TestNotesExtractRequiresDateColumn(t *testing.T) {
	path := writeNotes(t, `title,text
Coffee,nice
`)
	n := NewNotesExtractor(path)

	_, err := n.Extract(context.Background())

	assert.Error(t, err)
}

func TestNotesExtractValidatesAgainstStoreRules(t *testing.T) {
	path := writeNotes(t, `date,title
2024-06-01,Coffee
`)
	n := NewNotesExtractor(path)

	events, err := n.Extract(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NoError(t, events[0].Validate())
}

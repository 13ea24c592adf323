package extractor

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/penwyp/go-timeline-mapper/internal/core/model"
	"github.com/penwyp/go-timeline-mapper/internal/data/gpx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStravaExtractor(t *testing.T) *StravaExtractor {
	t.Helper()
	s := NewStravaExtractor(StravaCredentials{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "refresh",
	}, filepath.Join(t.TempDir(), "gpx"), 10)
	s.pagePause = 0

	httpmock.ActivateNonDefault(s.client)
	t.Cleanup(httpmock.DeactivateAndReset)
	return s
}

func registerToken() {
	httpmock.RegisterResponder(http.MethodPost, stravaAuthURL,
		httpmock.NewStringResponder(200, `{"access_token":"tok-123"}`))
}

func TestStravaExtract(t *testing.T) {
	s := newTestStravaExtractor(t)
	registerToken()

	httpmock.RegisterResponder(http.MethodGet, stravaAPIBase+"/athlete/activities",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("page") != "1" {
				return httpmock.NewStringResponse(200, `[]`), nil
			}
			return httpmock.NewStringResponse(200, `[
				{"id": 42, "name": "Morning Run", "type": "Run",
				 "start_date": "2024-06-01T07:15:00Z", "start_latlng": [51.05, 3.72]},
				{"id": 43, "name": "Treadmill", "type": "Workout",
				 "start_date": "2024-06-02T18:00:00Z", "start_latlng": []}
			]`), nil
		})

	httpmock.RegisterResponder(http.MethodGet, stravaAPIBase+"/activities/42/streams",
		httpmock.NewStringResponder(200, `{"latlng":{"data":[[51.05,3.72],[51.06,3.73]]}}`))
	httpmock.RegisterResponder(http.MethodGet, stravaAPIBase+"/activities/43/streams",
		httpmock.NewStringResponder(404, `{"message":"Not Found"}`))

	events, err := s.Extract(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 2)

	run := events[0]
	assert.Equal(t, model.SourceActivity, run.Source)
	assert.Equal(t, "run", run.Subtype)
	assert.Equal(t, "Morning Run", run.Title)
	assert.Equal(t, "42", run.ExternalID)
	assert.Equal(t, "2024-06-01", run.Day)
	require.NotNil(t, run.Lat)
	assert.Equal(t, 51.05, *run.Lat)
	assert.NoError(t, run.Validate())

	// The downloaded stream landed as a readable GPX file.
	require.NotEmpty(t, run.Path)
	points, err := gpx.ReadPolyline(run.Path)
	require.NoError(t, err)
	assert.Len(t, points, 2)

	// No stream, no start position: still a valid candidate.
	treadmill := events[1]
	assert.Empty(t, treadmill.Path)
	assert.Nil(t, treadmill.Lat)
	assert.NoError(t, treadmill.Validate())
}

func activitiesPage(firstID, count int) string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < count; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"id": %d, "name": "Ride %d", "type": "Ride", "start_date": "2024-06-01T07:00:00Z"}`,
			firstID+i, firstID+i)
	}
	b.WriteString("]")
	return b.String()
}

func TestStravaExtractPaginatesUpToLimit(t *testing.T) {
	s := newTestStravaExtractor(t)
	// Above the API page cap, so the listing spans two full pages and the
	// surplus of the second page is trimmed.
	s.fetchLimit = 250
	registerToken()

	httpmock.RegisterResponder(http.MethodGet, stravaAPIBase+"/athlete/activities",
		func(req *http.Request) (*http.Response, error) {
			switch req.URL.Query().Get("page") {
			case "1":
				return httpmock.NewStringResponse(200, activitiesPage(1000, 200)), nil
			case "2":
				return httpmock.NewStringResponse(200, activitiesPage(2000, 200)), nil
			}
			return httpmock.NewStringResponse(200, `[]`), nil
		})
	httpmock.RegisterResponder(http.MethodGet, `=~/activities/\d+/streams`,
		httpmock.NewStringResponder(404, ``))

	events, err := s.Extract(context.Background())

	require.NoError(t, err)
	assert.Len(t, events, 250)
	assert.Equal(t, 2,
		httpmock.GetCallCountInfo()[fmt.Sprintf("GET %s/athlete/activities", stravaAPIBase)])
}

func TestStravaExtractStopsOnShortPage(t *testing.T) {
	s := newTestStravaExtractor(t)
	s.fetchLimit = 10
	registerToken()

	// Two activities against a limit of ten: the short first page is the
	// last one and no second request goes out.
	httpmock.RegisterResponder(http.MethodGet, stravaAPIBase+"/athlete/activities",
		httpmock.NewStringResponder(200, activitiesPage(1, 2)))
	httpmock.RegisterResponder(http.MethodGet, `=~/activities/\d+/streams`,
		httpmock.NewStringResponder(404, ``))

	events, err := s.Extract(context.Background())

	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 1,
		httpmock.GetCallCountInfo()[fmt.Sprintf("GET %s/athlete/activities", stravaAPIBase)])
}

func TestStravaExtractSkipsBrokenStartDate(t *testing.T) {
	s := newTestStravaExtractor(t)
	registerToken()

	httpmock.RegisterResponder(http.MethodGet, stravaAPIBase+"/athlete/activities",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("page") != "1" {
				return httpmock.NewStringResponse(200, `[]`), nil
			}
			return httpmock.NewStringResponse(200, `[
				{"id": 1, "name": "Bad", "type": "Run", "start_date": "yesterday"},
				{"id": 2, "name": "Good", "type": "Run", "start_date": "2024-06-01T07:00:00Z"}
			]`), nil
		})
	httpmock.RegisterResponder(http.MethodGet, `=~/activities/\d+/streams`,
		httpmock.NewStringResponder(404, ``))

	events, err := s.Extract(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Good", events[0].Title)
}

func TestStravaExtractTokenFailureIsFatal(t *testing.T) {
	s := newTestStravaExtractor(t)
	httpmock.RegisterResponder(http.MethodPost, stravaAuthURL,
		httpmock.NewStringResponder(401, `{"message":"Unauthorized"}`))

	_, err := s.Extract(context.Background())

	assert.Error(t, err)
}

func TestStravaExtractReusesExistingGPX(t *testing.T) {
	s := newTestStravaExtractor(t)
	registerToken()

	// Pre-existing GPX file: no streams request should be issued.
	existing := filepath.Join(s.gpxDir, "7.gpx")
	require.NoError(t, gpx.WritePolyline(existing, nil))

	httpmock.RegisterResponder(http.MethodGet, stravaAPIBase+"/athlete/activities",
		func(req *http.Request) (*http.Response, error) {
			if req.URL.Query().Get("page") != "1" {
				return httpmock.NewStringResponse(200, `[]`), nil
			}
			return httpmock.NewStringResponse(200, `[
				{"id": 7, "name": "Cached", "type": "Hike", "start_date": "2024-06-01T07:00:00Z"}
			]`), nil
		})

	events, err := s.Extract(context.Background())

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, existing, events[0].Path)
	assert.Zero(t, httpmock.GetCallCountInfo()[fmt.Sprintf("GET %s/activities/7/streams", stravaAPIBase)])
}

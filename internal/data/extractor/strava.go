package extractor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/penwyp/go-timeline-mapper/internal/core/geometry"
	"github.com/penwyp/go-timeline-mapper/internal/core/model"
	"github.com/penwyp/go-timeline-mapper/internal/data/gpx"
	"github.com/penwyp/go-timeline-mapper/internal/util"
)

const (
	stravaAuthURL = "https://www.strava.com/oauth/token"
	stravaAPIBase = "https://www.strava.com/api/v3"

	maxPerPage = 200
	pagePause  = 200 * time.Millisecond
)

// StravaCredentials hold the OAuth refresh-token grant inputs.
type StravaCredentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// LoadStravaCredentials reads credentials from the environment, loading a
// .env file first when present.
func LoadStravaCredentials() (StravaCredentials, error) {
	_ = godotenv.Load()

	creds := StravaCredentials{
		ClientID:     os.Getenv("STRAVA_CLIENT_ID"),
		ClientSecret: os.Getenv("STRAVA_CLIENT_SECRET"),
		RefreshToken: os.Getenv("STRAVA_REFRESH_TOKEN"),
	}
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.RefreshToken == "" {
		return StravaCredentials{}, fmt.Errorf("missing STRAVA credentials in environment")
	}
	return creds, nil
}

// StravaExtractor fetches recorded activities from the Strava API and
// converts each latlng stream into a GPX file on disk. The resulting
// candidate events reference the GPX path so the renderer can draw routes.
type StravaExtractor struct {
	client     *http.Client
	authURL    string
	apiBase    string
	creds      StravaCredentials
	gpxDir     string
	fetchLimit int
	pagePause  time.Duration
}

func NewStravaExtractor(creds StravaCredentials, gpxDir string, fetchLimit int) *StravaExtractor {
	return &StravaExtractor{
		client:     &http.Client{Timeout: 60 * time.Second},
		authURL:    stravaAuthURL,
		apiBase:    stravaAPIBase,
		creds:      creds,
		gpxDir:     gpxDir,
		fetchLimit: fetchLimit,
		pagePause:  pagePause,
	}
}

func (s *StravaExtractor) Name() string {
	return "strava"
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type stravaActivity struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	StartDate   string    `json:"start_date"`
	StartLatLng []float64 `json:"start_latlng"`
}

type streamSet struct {
	LatLng struct {
		Data [][]float64 `json:"data"`
	} `json:"latlng"`
}

// Extract refreshes the access token, pages through recent activities and
// builds one candidate event per activity. Activities with a broken start
// date are rejected individually.
func (s *StravaExtractor) Extract(ctx context.Context) ([]model.Event, error) {
	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh Strava token: %w", err)
	}

	activities, err := s.listActivities(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to list Strava activities: %w", err)
	}

	var candidates []model.Event
	for _, activity := range activities {
		start, err := time.Parse(time.RFC3339, activity.StartDate)
		if err != nil {
			util.LogWarnf("Skip Strava activity %d: unparseable start date %q", activity.ID, activity.StartDate)
			continue
		}
		start = start.UTC()

		gpxPath, err := s.downloadGPX(ctx, token, activity.ID)
		if err != nil {
			util.LogWarnf("No GPX for Strava activity %d: %v", activity.ID, err)
			gpxPath = ""
		}

		event := model.Event{
			Source:     model.SourceActivity,
			Subtype:    strings.ToLower(activity.Type),
			Timestamp:  start,
			Day:        model.DayOf(start),
			Path:       gpxPath,
			Title:      activity.Name,
			ExternalID: strconv.FormatInt(activity.ID, 10),
		}
		if len(activity.StartLatLng) == 2 {
			lat, lon := activity.StartLatLng[0], activity.StartLatLng[1]
			event.Lat = &lat
			event.Lon = &lon
		}
		candidates = append(candidates, event)
	}

	util.LogDebugf("Strava extraction finished: %d activities, %d candidates", len(activities), len(candidates))
	return candidates, nil
}

func (s *StravaExtractor) accessToken(ctx context.Context) (string, error) {
	form := url.Values{
		"client_id":     {s.creds.ClientID},
		"client_secret": {s.creds.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.creds.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := s.do(req)
	if err != nil {
		return "", err
	}

	var token tokenResponse
	if err := sonic.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access token")
	}
	return token.AccessToken, nil
}

func (s *StravaExtractor) listActivities(ctx context.Context, token string) ([]stravaActivity, error) {
	perPage := s.fetchLimit
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	var fetched []stravaActivity
	for page := 1; len(fetched) < s.fetchLimit; page++ {
		endpoint := fmt.Sprintf("%s/athlete/activities?page=%d&per_page=%d", s.apiBase, page, perPage)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		body, err := s.do(req)
		if err != nil {
			return nil, err
		}

		var items []stravaActivity
		if err := sonic.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("failed to decode activities page %d: %w", page, err)
		}
		fetched = append(fetched, items...)
		// A short page is the last page; asking for another wastes a
		// round-trip.
		if len(items) < perPage {
			break
		}

		time.Sleep(s.pagePause)
	}

	if len(fetched) > s.fetchLimit {
		fetched = fetched[:s.fetchLimit]
	}
	return fetched, nil
}

// downloadGPX converts an activity's latlng stream to a GPX file. An
// existing file is reused; activities without coordinates return an empty
// path.
func (s *StravaExtractor) downloadGPX(ctx context.Context, token string, activityID int64) (string, error) {
	gpxPath := filepath.Join(s.gpxDir, fmt.Sprintf("%d.gpx", activityID))
	if _, err := os.Stat(gpxPath); err == nil {
		return gpxPath, nil
	}

	endpoint := fmt.Sprintf("%s/activities/%d/streams?keys=latlng&key_by_type=true", s.apiBase, activityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("streams request returned %d", resp.StatusCode)
	}

	var streams streamSet
	if err := sonic.Unmarshal(body, &streams); err != nil {
		return "", fmt.Errorf("failed to decode stream response: %w", err)
	}
	if len(streams.LatLng.Data) == 0 {
		return "", nil
	}

	points := make([]geometry.Point, 0, len(streams.LatLng.Data))
	for _, pair := range streams.LatLng.Data {
		if len(pair) != 2 {
			continue
		}
		points = append(points, geometry.Point{Lat: pair[0], Lon: pair[1]})
	}

	if err := gpx.WritePolyline(gpxPath, points); err != nil {
		return "", err
	}
	return gpxPath, nil
}

func (s *StravaExtractor) do(req *http.Request) ([]byte, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s returned %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return body, nil
}

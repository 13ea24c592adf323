package gpx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/penwyp/go-timeline-mapper/internal/core/geometry"
	gpxgo "github.com/tkrajina/gpxgo/gpx"
)

// ReadPolyline parses a GPX file into an ordered point sequence. Track
// segments come first, then route points, matching recording order. The
// result is a fresh slice owned by the caller.
func ReadPolyline(path string) ([]geometry.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read GPX file %s: %w", path, err)
	}

	parsed, err := gpxgo.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GPX file %s: %w", path, err)
	}

	var points []geometry.Point
	for _, track := range parsed.Tracks {
		for _, segment := range track.Segments {
			for _, p := range segment.Points {
				points = append(points, geometry.Point{Lat: p.Latitude, Lon: p.Longitude})
			}
		}
	}
	for _, route := range parsed.Routes {
		for _, p := range route.Points {
			points = append(points, geometry.Point{Lat: p.Latitude, Lon: p.Longitude})
		}
	}

	return points, nil
}

// WritePolyline writes a point sequence as a minimal single-track GPX file,
// creating parent directories as needed.
func WritePolyline(path string, points []geometry.Point) error {
	segment := gpxgo.GPXTrackSegment{}
	for _, p := range points {
		segment.Points = append(segment.Points, gpxgo.GPXPoint{
			Point: gpxgo.Point{Latitude: p.Lat, Longitude: p.Lon},
		})
	}

	doc := &gpxgo.GPX{
		Version: "1.1",
		Creator: "go-timeline-mapper",
		Tracks:  []gpxgo.GPXTrack{{Segments: []gpxgo.GPXTrackSegment{segment}}},
	}

	data, err := doc.ToXml(gpxgo.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return fmt.Errorf("failed to encode GPX: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create GPX directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write GPX file %s: %w", path, err)
	}
	return nil
}

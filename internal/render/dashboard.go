package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-timeline-mapper/internal/config"
	"github.com/penwyp/go-timeline-mapper/internal/core/geometry"
	"github.com/penwyp/go-timeline-mapper/internal/core/model"
	"github.com/penwyp/go-timeline-mapper/internal/core/timeline"
)

// DayPage carries everything the renderer needs for one calendar day: the
// chronologically ordered events, the inferred connectors and the
// simplified route polylines of activity events. The renderer only encodes
// visuals; it never reorders or filters events beyond the connector skip
// rule already applied upstream.
type DayPage struct {
	Day        string
	Events     []model.Event
	Connectors []timeline.Connector
	Routes     [][]geometry.Point
}

// IndexEntry is one line of the dashboard index.
type IndexEntry struct {
	Day   string
	Count int
}

// Renderer writes the per-day Leaflet maps and the index page.
type Renderer struct {
	outDir  string
	mapCfg  config.MapConfig
	dayTmpl *template.Template
	idxTmpl *template.Template
}

// New creates the output directory and parses the page templates.
func New(outDir string, mapCfg config.MapConfig) (*Renderer, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dashboard directory: %w", err)
	}

	dayTmpl, err := template.New("day").Parse(dayPageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse day template: %w", err)
	}
	idxTmpl, err := template.New("index").Parse(indexPageTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}

	return &Renderer{
		outDir:  outDir,
		mapCfg:  mapCfg,
		dayTmpl: dayTmpl,
		idxTmpl: idxTmpl,
	}, nil
}

// payload is the JSON blob handed to the Leaflet script of a day page.
type payload struct {
	Center          [2]float64      `json:"center"`
	Zoom            int             `json:"zoom"`
	Markers         []marker        `json:"markers"`
	Connectors      [][2][2]float64 `json:"connectors"`
	Routes          [][][2]float64  `json:"routes"`
	ConnectorWeight int             `json:"connectorWeight"`
	ConnectorDash   string          `json:"connectorDash"`
	RouteWeight     int             `json:"routeWeight"`
}

type marker struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Source string  `json:"source"`
	Title  string  `json:"title"`
	Time   string  `json:"time"`
}

// RenderDay writes <day>.html and returns the file name.
func (r *Renderer) RenderDay(page DayPage) (string, error) {
	data := payload{
		Center:          [2]float64{r.mapCfg.CenterLat, r.mapCfg.CenterLon},
		Zoom:            r.mapCfg.ZoomStart,
		ConnectorWeight: r.mapCfg.ConnectorWeight,
		ConnectorDash:   r.mapCfg.ConnectorDash,
		RouteWeight:     r.mapCfg.RouteWeight,
	}

	for _, e := range page.Events {
		if !e.HasLocation() {
			// Placing a marker needs coordinates; everything else about the
			// event still reaches the page through the index counts.
			continue
		}
		title := e.Title
		if title == "" {
			title = e.Source
		}
		data.Markers = append(data.Markers, marker{
			Lat:    *e.Lat,
			Lon:    *e.Lon,
			Source: e.Source,
			Title:  title,
			Time:   e.Timestamp.UTC().Format("15:04"),
		})
	}

	for _, c := range page.Connectors {
		data.Connectors = append(data.Connectors, [2][2]float64{
			{*c.From.Lat, *c.From.Lon},
			{*c.To.Lat, *c.To.Lon},
		})
	}

	for _, route := range page.Routes {
		if len(route) < 2 {
			continue
		}
		line := make([][2]float64, 0, len(route))
		for _, p := range route {
			line = append(line, [2]float64{p.Lat, p.Lon})
		}
		data.Routes = append(data.Routes, line)
	}

	encoded, err := sonic.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode day payload: %w", err)
	}

	name := page.Day + ".html"
	file, err := os.Create(filepath.Join(r.outDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create day page: %w", err)
	}
	defer file.Close()

	err = r.dayTmpl.Execute(file, struct {
		Day     string
		Payload template.JS
	}{Day: page.Day, Payload: template.JS(encoded)})
	if err != nil {
		return "", fmt.Errorf("failed to render day page: %w", err)
	}
	return name, nil
}

// RenderIndex writes index.html enumerating all rendered days with their
// entry counts.
func (r *Renderer) RenderIndex(entries []IndexEntry) error {
	file, err := os.Create(filepath.Join(r.outDir, "index.html"))
	if err != nil {
		return fmt.Errorf("failed to create index page: %w", err)
	}
	defer file.Close()

	if err := r.idxTmpl.Execute(file, entries); err != nil {
		return fmt.Errorf("failed to render index page: %w", err)
	}
	return nil
}

const dayPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Timeline {{.Day}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html,body,#map{height:100%;margin:0}</style>
</head>
<body>
<div id="map"></div>
<script>
var data = {{.Payload}};
var map = L.map('map').setView(data.center, data.zoom);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);

var photos = L.layerGroup().addTo(map);
var notes = L.layerGroup().addTo(map);
var routes = L.layerGroup().addTo(map);
var connectors = L.layerGroup().addTo(map);

(data.markers || []).forEach(function (m) {
  var layer = m.source === 'photo' ? photos : (m.source === 'activity' ? routes : notes);
  L.marker([m.lat, m.lon]).bindPopup('<b>' + m.title + '</b><br>' + m.time).addTo(layer);
});

(data.connectors || []).forEach(function (seg) {
  L.polyline(seg, {weight: data.connectorWeight, dashArray: data.connectorDash}).addTo(connectors);
});

(data.routes || []).forEach(function (line) {
  L.polyline(line, {weight: data.routeWeight}).addTo(routes);
});

L.control.layers(null, {
  'Photos': photos,
  'Notes/Places': notes,
  'Routes (GPX)': routes,
  'Connectors (dotted)': connectors
}).addTo(map);
</script>
</body>
</html>
`

const indexPageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Timeline Dashboard</title>
<style>body{font-family:system-ui, -apple-system, Segoe UI, Roboto, sans-serif;margin:20px;}a{color:#2563eb;text-decoration:none}a:hover{text-decoration:underline} .day{margin-bottom:6px}</style>
</head>
<body>
<h1>Timeline</h1>
<p>Select a day to view the map &amp; entries.</p>
<ul>
{{range .}}<li class="day"><a href="{{.Day}}.html">{{.Day}}</a> &mdash; {{.Count}} entries</li>
{{end}}</ul>
</body>
</html>
`

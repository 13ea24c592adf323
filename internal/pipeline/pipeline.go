package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/penwyp/go-timeline-mapper/internal/config"
	"github.com/penwyp/go-timeline-mapper/internal/core/geometry"
	"github.com/penwyp/go-timeline-mapper/internal/core/model"
	"github.com/penwyp/go-timeline-mapper/internal/core/timeline"
	"github.com/penwyp/go-timeline-mapper/internal/data/cache"
	"github.com/penwyp/go-timeline-mapper/internal/data/extractor"
	"github.com/penwyp/go-timeline-mapper/internal/data/gpx"
	"github.com/penwyp/go-timeline-mapper/internal/render"
	"github.com/penwyp/go-timeline-mapper/internal/store"
	"github.com/penwyp/go-timeline-mapper/internal/util"
)

// Pipeline wires the extractors, the event store and the renderer into the
// ingestion and rendering passes behind the CLI commands.
type Pipeline struct {
	cfg        *config.Config
	store      store.EventStore
	extractors []extractor.Extractor
	renderer   *render.Renderer
}

// New opens the event store and assembles the extractor set. A store that
// cannot be opened is fatal; a Strava extractor without credentials is
// dropped with a warning so local sources still ingest.
func New(cfg *config.Config) (*Pipeline, error) {
	eventStore, err := store.Open(cfg.Paths.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}

	extractionCache, err := cache.NewExtractionCache(cfg.Paths.CacheDir)
	if err != nil {
		util.LogWarnf("Extraction cache unavailable, re-reading all sources: %v", err)
		extractionCache = nil
	}

	extractors := []extractor.Extractor{
		extractor.NewPhotoExtractor(cfg.Paths.PhotosDir, extractionCache),
		extractor.NewNotesExtractor(cfg.Paths.NotesCSV),
	}

	if cfg.Strava.Enabled {
		if cfg.Strava.FetchLimit <= 0 {
			util.LogWarn("Strava extractor disabled: fetch_limit is 0")
		} else if creds, err := extractor.LoadStravaCredentials(); err != nil {
			util.LogWarnf("Strava extractor disabled: %v", err)
		} else {
			extractors = append(extractors,
				extractor.NewStravaExtractor(creds, cfg.Paths.StravaGPXDir, cfg.Strava.FetchLimit))
		}
	}

	renderer, err := render.New(cfg.Paths.DashboardDir, cfg.Map)
	if err != nil {
		eventStore.Close()
		return nil, err
	}

	return &Pipeline{
		cfg:        cfg,
		store:      eventStore,
		extractors: extractors,
		renderer:   renderer,
	}, nil
}

// Close releases the underlying store.
func (p *Pipeline) Close() error {
	return p.store.Close()
}

// Ingest runs every extractor and upserts the combined candidates in one
// batch per extractor. An extractor failure is logged and the pass
// continues; only store failures abort.
func (p *Pipeline) Ingest(ctx context.Context) error {
	start := time.Now()
	totalInserted := 0
	totalRejected := 0

	for _, ext := range p.extractors {
		extractStart := time.Now()
		candidates, err := ext.Extract(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			util.LogErrorf("Extractor %s failed: %v", ext.Name(), err)
			continue
		}
		util.LogDebugf("Extractor %s produced %d candidates in %v",
			ext.Name(), len(candidates), time.Since(extractStart))

		if len(candidates) == 0 {
			continue
		}

		result, err := p.store.Upsert(candidates)
		if err != nil {
			return fmt.Errorf("ingestion failed for %s: %w", ext.Name(), err)
		}
		totalInserted += result.Inserted
		totalRejected += len(result.Rejected)
		util.LogInfof("[%s] upserted %d new events (%d rejected)",
			ext.Name(), result.Inserted, len(result.Rejected))
	}

	util.LogInfof("Ingestion finished in %v: %d inserted, %d rejected",
		time.Since(start), totalInserted, totalRejected)
	return nil
}

// Render reads the whole store, partitions it by day and writes one map
// page per day plus the index.
func (p *Pipeline) Render(ctx context.Context) error {
	start := time.Now()

	fetchStart := time.Now()
	events, err := p.store.FetchAll()
	if err != nil {
		return err
	}
	util.LogDebugf("Fetched %d events in %v", len(events), time.Since(fetchStart))

	days := timeline.GroupByDay(events)

	var index []render.IndexEntry
	for _, day := range timeline.SortedDays(days) {
		if err := ctx.Err(); err != nil {
			return err
		}
		bucket := days[day]

		page := render.DayPage{
			Day:        day,
			Events:     bucket,
			Connectors: timeline.Connectors(bucket),
			Routes:     p.routesFor(bucket),
		}
		if _, err := p.renderer.RenderDay(page); err != nil {
			return fmt.Errorf("failed to render day %s: %w", day, err)
		}
		index = append(index, render.IndexEntry{Day: day, Count: len(bucket)})
	}

	if err := p.renderer.RenderIndex(index); err != nil {
		return err
	}

	util.LogInfof("Dashboard rendered in %v: %d day pages -> %s",
		time.Since(start), len(index), p.cfg.Paths.DashboardDir)
	return nil
}

// routesFor loads and simplifies the raw track of every activity event in
// the bucket that references a GPX file. A track that fails to load only
// costs its own route, never the page.
func (p *Pipeline) routesFor(bucket []model.Event) [][]geometry.Point {
	var routes [][]geometry.Point
	for _, e := range bucket {
		if e.Source != model.SourceActivity || e.Path == "" {
			continue
		}
		points, err := gpx.ReadPolyline(e.Path)
		if err != nil {
			util.LogWarnf("Skip route for activity %s: %v", e.ExternalID, err)
			continue
		}
		simplified := geometry.Simplify(points, p.cfg.Simplify.Tolerance)
		if len(simplified) < 2 {
			continue
		}
		routes = append(routes, simplified)
	}
	return routes
}

// Run executes a full pass: ingest everything, then render the dashboard.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.Ingest(ctx); err != nil {
		return err
	}
	return p.Render(ctx)
}

package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/penwyp/go-timeline-mapper/internal/core/model"
	"github.com/penwyp/go-timeline-mapper/internal/data/cache"
	"github.com/penwyp/go-timeline-mapper/internal/data/scanner"
	"github.com/penwyp/go-timeline-mapper/internal/util"
	"github.com/rwcarlsen/goexif/exif"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// PhotoExtractor walks the photo directory and produces one candidate event
// per image, timestamped and geolocated from EXIF metadata. Extraction
// results are cached per file so unchanged photos are not re-read.
type PhotoExtractor struct {
	scanner *scanner.FileScanner
	cache   *cache.ExtractionCache
}

func NewPhotoExtractor(photosDir string, extractionCache *cache.ExtractionCache) *PhotoExtractor {
	return &PhotoExtractor{
		scanner: scanner.NewFileScanner(photosDir, scanner.PhotoExtensions),
		cache:   extractionCache,
	}
}

func (p *PhotoExtractor) Name() string {
	return "photos"
}

// Extract scans for image files and builds candidates. Files that cannot be
// read are skipped with a diagnostic.
func (p *PhotoExtractor) Extract(ctx context.Context) ([]model.Event, error) {
	files, err := p.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan photos: %w", err)
	}

	var candidates []model.Event
	cacheHits := 0
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if p.cache != nil {
			if cached, ok := p.cache.Get(path); ok {
				candidates = append(candidates, cached...)
				cacheHits++
				continue
			}
		}

		event, err := p.extractOne(path)
		if err != nil {
			util.LogWarnf("Skip photo %s: %v", path, err)
			continue
		}
		candidates = append(candidates, event)

		if p.cache != nil {
			if err := p.cache.Set(path, []model.Event{event}); err != nil {
				util.LogDebugf("Failed to cache extraction for %s: %v", path, err)
			}
		}
	}

	util.LogDebugf("Photo extraction finished: %d files, %d cache hits, %d candidates",
		len(files), cacheHits, len(candidates))
	return candidates, nil
}

func (p *PhotoExtractor) extractOne(path string) (model.Event, error) {
	ts, lat, lon, err := readExif(path)
	if err != nil {
		return model.Event{}, err
	}

	event := model.Event{
		Source:     model.SourcePhoto,
		Subtype:    strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")),
		Timestamp:  ts,
		Day:        model.DayOf(ts),
		Path:       path,
		Title:      strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		ExternalID: path,
	}
	if lat != nil && lon != nil {
		event.Lat = lat
		event.Lon = lon
	}
	return event, nil
}

// readExif pulls the capture time and GPS position out of a photo. A photo
// without usable EXIF falls back to the file modification time and carries
// no location.
func readExif(path string) (time.Time, *float64, *float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, nil, nil, err
	}
	defer file.Close()

	meta, err := exif.Decode(file)
	if err != nil {
		return mtimeFallback(path)
	}

	ts, ok := exifTimestamp(meta)
	if !ok {
		fallbackTS, _, _, err := mtimeFallback(path)
		if err != nil {
			return time.Time{}, nil, nil, err
		}
		ts = fallbackTS
	}

	if lat, lon, err := meta.LatLong(); err == nil {
		return ts, &lat, &lon, nil
	}
	return ts, nil, nil, nil
}

func exifTimestamp(meta *exif.Exif) (time.Time, bool) {
	for _, field := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		tag, err := meta.Get(field)
		if err != nil {
			continue
		}
		value, err := tag.StringVal()
		if err != nil {
			continue
		}
		// EXIF carries no timezone; capture times are treated as UTC.
		if ts, err := time.ParseInLocation(exifTimeLayout, value, time.UTC); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func mtimeFallback(path string) (time.Time, *float64, *float64, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return time.Time{}, nil, nil, err
	}
	return stat.ModTime().UTC(), nil, nil, nil
}

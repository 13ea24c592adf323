package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// PathsConfig locates the input sources and output artifacts.
type PathsConfig struct {
	DBPath       string `yaml:"db_path" validate:"required"`
	PhotosDir    string `yaml:"photos_dir" validate:"required"`
	NotesCSV     string `yaml:"notes_csv" validate:"required"`
	StravaGPXDir string `yaml:"strava_gpx_dir" validate:"required"`
	DashboardDir string `yaml:"dashboard_dir" validate:"required"`
	CacheDir     string `yaml:"cache_dir"`
}

// MapConfig controls the rendered day maps.
type MapConfig struct {
	CenterLat       float64 `yaml:"center_lat"`
	CenterLon       float64 `yaml:"center_lon"`
	ZoomStart       int     `yaml:"zoom_start"`
	ConnectorWeight int     `yaml:"connector_weight"`
	ConnectorDash   string  `yaml:"connector_dash"`
	RouteWeight     int     `yaml:"route_weight"`
}

// SimplifyConfig holds the route simplification tolerance in degrees.
type SimplifyConfig struct {
	Tolerance float64 `yaml:"tolerance" validate:"gte=0"`
}

// StravaConfig controls the Strava activity extractor. Credentials come
// from the environment, not the config file.
type StravaConfig struct {
	Enabled    bool `yaml:"enabled"`
	FetchLimit int  `yaml:"fetch_limit" validate:"gte=0"`
}

// WatchConfig controls the filesystem watch loop.
type WatchConfig struct {
	CooldownSeconds int `yaml:"cooldown_seconds" validate:"gte=0"`
}

// Config is the application configuration loaded from a YAML file.
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Map      MapConfig      `yaml:"map"`
	Simplify SimplifyConfig `yaml:"simplify"`
	Strava   StravaConfig   `yaml:"strava"`
	Watch    WatchConfig    `yaml:"watch"`
}

// DefaultTolerance is the route simplification tolerance applied when the
// config file leaves it unset, in coordinate degrees.
const DefaultTolerance = 0.0003

func defaults() Config {
	return Config{
		Map: MapConfig{
			ZoomStart:       13,
			ConnectorWeight: 2,
			ConnectorDash:   "6 6",
			RouteWeight:     4,
		},
		Simplify: SimplifyConfig{Tolerance: DefaultTolerance},
		Strava:   StravaConfig{Enabled: true, FetchLimit: 200},
		Watch:    WatchConfig{CooldownSeconds: 5},
	}
}

// Load reads, validates and defaults the configuration at path. Paths are
// expanded (~ and relative) so the rest of the system only sees absolute
// locations.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Simplify.Tolerance == 0 {
		cfg.Simplify.Tolerance = DefaultTolerance
	}
	if cfg.Paths.CacheDir == "" {
		cfg.Paths.CacheDir = filepath.Join(filepath.Dir(cfg.Paths.DBPath), "cache")
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	cfg.Paths.DBPath = ExpandPath(cfg.Paths.DBPath)
	cfg.Paths.PhotosDir = ExpandPath(cfg.Paths.PhotosDir)
	cfg.Paths.NotesCSV = ExpandPath(cfg.Paths.NotesCSV)
	cfg.Paths.StravaGPXDir = ExpandPath(cfg.Paths.StravaGPXDir)
	cfg.Paths.DashboardDir = ExpandPath(cfg.Paths.DashboardDir)
	cfg.Paths.CacheDir = ExpandPath(cfg.Paths.CacheDir)

	return &cfg, nil
}

// ExpandPath resolves a leading ~ and makes the path absolute.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

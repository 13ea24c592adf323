package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/penwyp/go-timeline-mapper/internal/config"
	"github.com/penwyp/go-timeline-mapper/internal/pipeline"
	"github.com/penwyp/go-timeline-mapper/internal/util"
	"github.com/spf13/cobra"
)

var (
	// Logging related
	debug bool

	// Configuration file
	configPath string

	rootCmd = &cobra.Command{
		Use:   "go-timeline-mapper [flags]",
		Short: "Personal timeline map builder",
		Long: `go-timeline-mapper aggregates geotagged photos, notes and Strava
activities into a deduplicated event log and renders a day-by-day map
dashboard.

Examples:
  go-timeline-mapper                       # Ingest all sources and render the dashboard
  go-timeline-mapper --config my.yaml      # Use an alternative configuration file
  go-timeline-mapper ingest                # Ingest sources without rendering
  go-timeline-mapper render                # Render from the existing event store
  go-timeline-mapper watch                 # Re-run on filesystem changes`,
		RunE: runBuild,
	}
)

const defaultLogFile = "~/.go-timeline-mapper/logs/app.log"

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml",
		"Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
}

// setup initializes logging and loads the configuration; shared by every
// command.
func setup() (*config.Config, error) {
	logLevel := "info"
	if debug {
		logLevel = "debug"
	}

	logFile := config.ExpandPath(defaultLogFile)
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, err
	}
	util.InitLogger(logLevel, logFile, debug)

	return config.Load(configPath)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	return p.Run(context.Background())
}

func Execute() error {
	return rootCmd.Execute()
}

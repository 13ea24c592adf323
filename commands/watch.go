package commands

import (
	"context"
	"errors"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/penwyp/go-timeline-mapper/internal/pipeline"
	"github.com/penwyp/go-timeline-mapper/internal/util"
	"github.com/penwyp/go-timeline-mapper/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch input directories and rebuild on changes",
	Long: `Runs a full build, then watches the photo, GPX and notes directories.
Changes re-trigger the pipeline after a debounce cooldown. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial pass before settling into the watch loop.
	if err := p.Run(ctx); err != nil {
		util.LogErrorf("Initial build failed: %v", err)
	}

	w, err := watcher.New(
		[]string{
			cfg.Paths.PhotosDir,
			cfg.Paths.StravaGPXDir,
			filepath.Dir(cfg.Paths.NotesCSV),
		},
		time.Duration(cfg.Watch.CooldownSeconds)*time.Second,
		func(ctx context.Context) {
			if err := p.Run(ctx); err != nil {
				util.LogErrorf("Rebuild failed: %v", err)
			}
		},
	)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"birdhouse/internal/camera"
	"birdhouse/internal/settings"
	"birdhouse/internal/solar"
)

func newCaptureCommand(ctx *commandContext) *cobra.Command {
	var motionTag bool

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Take a single photo outside the capture loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			snap, _ := settings.NewStore(cfg.Paths.SettingsFile).Current()
			client, err := camera.New(cfg.Camera, cfg.Paths.PhotosDir)
			if err != nil {
				return err
			}

			site := solar.Site{
				Latitude:       cfg.Solar.Latitude,
				Longitude:      cfg.Solar.Longitude,
				UTCOffsetHours: cfg.Solar.UTCOffsetHours,
			}
			now := time.Now()
			res, err := client.Capture(cmd.Context(), camera.Request{
				Width:    snap.ResolutionWidth,
				Height:   snap.ResolutionHeight,
				Quality:  snap.JPEGQuality,
				Motion:   motionTag,
				Daytime:  site.IsDaytime(now),
				Captured: now,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Captured %s (%s mode)\n", res.Path, res.Mode)
			return nil
		},
	}

	cmd.Flags().BoolVar(&motionTag, "motion", false, "Tag the photo as a motion capture")
	return cmd
}

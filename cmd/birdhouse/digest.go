package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"birdhouse/internal/digest"
	"birdhouse/internal/journal"
	"birdhouse/internal/notifications"
	"birdhouse/internal/settings"
)

func newDigestCommand(ctx *commandContext) *cobra.Command {
	var send bool

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Build today's activity digest",
		Long:  "Build today's activity digest. Run nightly from cron; --send pushes it through ntfy.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			snap, _ := settings.NewStore(cfg.Paths.SettingsFile).Current()

			var summarizer digest.Summarizer
			if store, err := journal.Open(cfg.Paths.JournalPath); err == nil {
				defer store.Close()
				summarizer = store
			}

			builder := digest.NewBuilder(summarizer, cfg.Paths.PhotosDir, snap.UploadPath)
			d, err := builder.Build(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), d.Body())

			if !send {
				return nil
			}
			svc := notifications.NewService(cfg.Notifications)
			if err := svc.NotifyDailyDigest(cmd.Context(), d.Subject(), d.Body()); err != nil {
				return fmt.Errorf("send digest: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Digest sent.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&send, "send", false, "Push the digest through ntfy")
	return cmd
}

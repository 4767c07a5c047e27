package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"birdhouse/internal/journal"
	"birdhouse/internal/preflight"
	"birdhouse/internal/scheduler"
	"birdhouse/internal/settings"
	"birdhouse/internal/telemetry"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show camera health, loop state, and today's capture counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, ctx)
		},
	}
}

func runStatus(cmd *cobra.Command, ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	snap, _ := settings.NewStore(cfg.Paths.SettingsFile).Current()

	for _, line := range renderSectionHeader("System", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, check := range preflight.RunAll(cfg, snap) {
		kind := statusError
		if check.Passed {
			kind = statusOK
		} else if check.Name == "Upload destination" {
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Capture loop", colorize) {
		fmt.Fprintln(out, line)
	}
	if loop, err := fetchLoopStatus(cmd.Context(), cfg.Dashboard.Bind); err != nil {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusWarn, "not reachable (is it running?)", colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("Daemon", statusOK, fmt.Sprintf("session %s", loop.SessionID), colorize))
		fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, loop.Mode, colorize))
		fmt.Fprintln(out, renderStatusLine("Motion today", statusInfo, fmt.Sprintf("%d", loop.MotionEventsToday), colorize))
		if loop.LastCapture != "" {
			detail := fmt.Sprintf("%s at %s", loop.LastCapture, loop.LastCaptureAt.Format("15:04:05"))
			fmt.Fprintln(out, renderStatusLine("Last capture", statusInfo, detail, colorize))
		}
		if loop.LastError != "" {
			fmt.Fprintln(out, renderStatusLine("Last error", statusError, loop.LastError, colorize))
		}
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Device", colorize) {
		fmt.Fprintln(out, line)
	}
	stats := telemetry.NewCollector(cfg.Paths.PhotosDir).Collect(time.Now(), 0)
	fmt.Fprintln(out, renderStatusLine("CPU temp", statusInfo, stats.CPUTemp, colorize))
	fmt.Fprintln(out, renderStatusLine("Uptime", statusInfo, stats.Uptime, colorize))
	fmt.Fprintln(out, renderStatusLine("Disk free", statusInfo, fmt.Sprintf("%s (%s used)", stats.DiskFree, stats.DiskPct), colorize))
	fmt.Fprintln(out, renderStatusLine("WiFi signal", statusInfo, stats.WiFiSignal, colorize))

	printRecentCaptures(cmd, ctx, colorize)
	return nil
}

func printRecentCaptures(cmd *cobra.Command, ctx *commandContext, colorize bool) {
	cfg, _ := ctx.ensureConfig()
	out := cmd.OutOrStdout()

	store, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		return
	}
	defer store.Close()

	summary, err := store.Summary(cmd.Context(), time.Now())
	if err == nil {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Today", colorize) {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out, renderStatusLine("Photos", statusInfo,
			fmt.Sprintf("%d (%d regular, %d motion, %d uploaded)",
				summary.Total, summary.Regular, summary.Motion, summary.Uploaded), colorize))
	}

	recent, err := store.RecentCaptures(cmd.Context(), 10)
	if err != nil || len(recent) == 0 {
		return
	}
	rows := make([][]string, 0, len(recent))
	for _, c := range recent {
		uploaded := "no"
		if c.Uploaded {
			uploaded = "yes"
		}
		rows = append(rows, []string{
			c.CreatedAt.Format("15:04:05"),
			c.Filename,
			c.Mode,
			uploaded,
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(
		[]string{"Time", "Photo", "Mode", "Uploaded"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
	))
}

// fetchLoopStatus queries the running daemon's dashboard API.
func fetchLoopStatus(ctx context.Context, bind string) (*scheduler.Status, error) {
	endpoint, err := statusEndpoint(bind)
	if err != nil {
		return nil, err
	}
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := (&http.Client{Timeout: 2 * time.Second}).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dashboard returned %d", resp.StatusCode)
	}

	var status scheduler.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

// statusEndpoint turns the dashboard bind address into a loopback URL.
func statusEndpoint(bind string) (string, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return "", fmt.Errorf("dashboard bind address not configured")
	}
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return "", fmt.Errorf("dashboard bind address %q: %w", bind, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s/api/status", net.JoinHostPort(host, port)), nil
}

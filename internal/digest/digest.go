// Package digest summarizes one day of camera activity: photo counts, device
// health, and the best motion photo. The result feeds the digest notification
// and the CLI.
package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"birdhouse/internal/camera"
	"birdhouse/internal/journal"
	"birdhouse/internal/storage"
	"birdhouse/internal/telemetry"
)

// Digest holds one day's summary.
type Digest struct {
	Date            time.Time
	Total           int
	Regular         int
	Motion          int
	Events          []journal.Capture // the day's motion captures, oldest first
	Stats           telemetry.Snapshot
	BestMotionPhoto string // path, empty when no motion photo exists
}

// Summarizer provides a day's capture counts and motion events.
// *journal.Store satisfies this.
type Summarizer interface {
	Summary(ctx context.Context, t time.Time) (journal.DaySummary, error)
	MotionEvents(ctx context.Context, t time.Time) ([]journal.Capture, error)
}

// Builder assembles digests from the journal, the photo directories, and the
// mirrored telemetry snapshot.
type Builder struct {
	journal   Summarizer // may be nil
	photosDir string
	uploadDir string
}

// NewBuilder returns a digest builder. journal may be nil, in which case
// counts come from listing the photo directories.
func NewBuilder(j Summarizer, photosDir, uploadDir string) *Builder {
	return &Builder{journal: j, photosDir: photosDir, uploadDir: uploadDir}
}

// Build summarizes the local day containing t.
func (b *Builder) Build(ctx context.Context, t time.Time) (*Digest, error) {
	d := &Digest{Date: t}

	counted := false
	if b.journal != nil {
		if summary, err := b.journal.Summary(ctx, t); err == nil {
			d.Total = summary.Total
			d.Regular = summary.Regular
			d.Motion = summary.Motion
			counted = true
		}
		if events, err := b.journal.MotionEvents(ctx, t); err == nil {
			d.Events = events
		}
	}
	if !counted {
		regular, motionPhotos := b.photosForDay(t)
		d.Regular = regular
		d.Motion = len(motionPhotos)
		d.Total = regular + len(motionPhotos)
	}

	d.Stats = b.readStats()
	d.BestMotionPhoto = b.bestMotionPhoto(t)
	return d, nil
}

// Subject returns the notification subject line for the digest.
func (d *Digest) Subject() string {
	return fmt.Sprintf("Birdhouse Camera - %s Digest", d.Date.Format("January 2"))
}

// Body renders the digest as plain text.
func (d *Digest) Body() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Birdhouse Camera - Daily Digest for %s\n", d.Date.Format("January 2, 2006"))
	sb.WriteString(strings.Repeat("=", 50))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Photos captured today: %d\n", d.Total)
	fmt.Fprintf(&sb, "  Regular:  %d\n", d.Regular)
	fmt.Fprintf(&sb, "  Motion:   %d\n", d.Motion)
	sb.WriteString("\nPi Status:\n")
	fmt.Fprintf(&sb, "  CPU Temp:    %s\n", orUnavailable(d.Stats.CPUTemp))
	fmt.Fprintf(&sb, "  Uptime:      %s\n", orUnavailable(d.Stats.Uptime))
	fmt.Fprintf(&sb, "  Disk Free:   %s (%s used)\n", orUnavailable(d.Stats.DiskFree), orUnavailable(d.Stats.DiskPct))
	fmt.Fprintf(&sb, "  WiFi Signal: %s\n", orUnavailable(d.Stats.WiFiSignal))

	if d.Motion > 0 {
		fmt.Fprintf(&sb, "\nMotion was detected %d time(s) today!\n", d.Motion)
		for _, event := range d.Events {
			fmt.Fprintf(&sb, "  %s  %s\n", event.CreatedAt.Format("15:04:05"), event.Filename)
		}
	} else {
		sb.WriteString("\nNo motion detected today. The birds are being shy.\n")
	}
	if d.BestMotionPhoto != "" {
		fmt.Fprintf(&sb, "\nBest shot: %s\n", filepath.Base(d.BestMotionPhoto))
	}
	return sb.String()
}

func orUnavailable(v string) string {
	if strings.TrimSpace(v) == "" {
		return telemetry.Unavailable
	}
	return v
}

// photosForDay counts regular photos and collects motion photo paths for the
// day, across both the local cache and the mirror.
func (b *Builder) photosForDay(t time.Time) (regular int, motionPaths []string) {
	seen := make(map[string]struct{})
	for _, dir := range []string{b.photosDir, b.uploadDir} {
		if dir == "" {
			continue
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if _, dup := seen[name]; dup {
				continue
			}
			kind, captured, ok := camera.ParseFilename(name)
			if !ok || !sameDay(captured, t) {
				continue
			}
			seen[name] = struct{}{}
			if kind == "motion" {
				motionPaths = append(motionPaths, filepath.Join(dir, name))
			} else {
				regular++
			}
		}
	}
	return regular, motionPaths
}

// bestMotionPhoto returns the largest motion photo of the day. File size is a
// crude sharpness proxy: JPEGs of busy frames compress worse.
func (b *Builder) bestMotionPhoto(t time.Time) string {
	_, motionPaths := b.photosForDay(t)
	best := ""
	var bestSize int64 = -1
	for _, path := range motionPaths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			best = path
			bestSize = info.Size()
		}
	}
	return best
}

// readStats loads the last mirrored telemetry snapshot, preferring the
// mirror copy.
func (b *Builder) readStats() telemetry.Snapshot {
	for _, dir := range []string{b.uploadDir, b.photosDir} {
		if dir == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, storage.StatsFilename))
		if err != nil {
			continue
		}
		var snap telemetry.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		return snap
	}
	return telemetry.Snapshot{}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// Package scheduler runs the capture control loop: classify day or night,
// take a photo, compare it with the previous frame, and react to motion with
// a rapid burst. Settings are re-read every cycle so operator edits apply on
// the next iteration.
package scheduler

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"birdhouse/internal/camera"
	"birdhouse/internal/config"
	"birdhouse/internal/journal"
	"birdhouse/internal/logging"
	"birdhouse/internal/motion"
	"birdhouse/internal/settings"
	"birdhouse/internal/solar"
	"birdhouse/internal/telemetry"
)

// Camera produces photo files.
type Camera interface {
	Capture(ctx context.Context, req camera.Request) (*camera.Result, error)
}

// Differencer compares consecutive frames.
type Differencer interface {
	Observe(frame *image.Gray) motion.Result
	Reset()
}

// Syncer mirrors photos, writes telemetry, and enforces local retention.
type Syncer interface {
	Upload(localPath, destDir string) (bool, error)
	WriteStats(destDir string, snap telemetry.Snapshot) error
	Prune(max int) (int, error)
}

// Journal records capture history. It may be nil; journal failures never
// interrupt the loop.
type Journal interface {
	RecordCapture(ctx context.Context, c journal.Capture) (int64, error)
	MarkUploaded(ctx context.Context, id int64) error
}

// Notifier pushes motion and error alerts. It may be nil.
type Notifier interface {
	NotifyMotionDetected(ctx context.Context, eventsToday int, filename string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
}

// Collector gathers device health for the uploaded snapshot.
type Collector interface {
	Collect(now time.Time, motionToday int) telemetry.Snapshot
}

// Options wires the scheduler's collaborators.
type Options struct {
	Site      solar.Site
	Motion    config.Motion
	Settings  settings.Provider
	Camera    Camera
	Detector  Differencer
	Sync      Syncer
	Journal   Journal
	Notifier  Notifier
	Telemetry Collector
	Logger    *slog.Logger
	SessionID string
	Clock     func() time.Time
}

// Status is a point-in-time view of loop state for the dashboard and CLI.
type Status struct {
	SessionID         string    `json:"session_id"`
	Mode              string    `json:"mode"`
	MotionEventsToday int       `json:"motion_events_today"`
	BurstRemaining    int       `json:"burst_remaining"`
	Cycles            int       `json:"cycles"`
	LastCapture       string    `json:"last_capture"`
	LastCaptureAt     time.Time `json:"last_capture_at"`
	LastError         string    `json:"last_error"`
}

// Scheduler owns the capture loop state.
type Scheduler struct {
	site      solar.Site
	motionCfg config.Motion
	settings  settings.Provider
	camera    Camera
	detector  Differencer
	sync      Syncer
	journal   Journal
	notifier  Notifier
	telemetry Collector
	logger    *slog.Logger
	sessionID string
	clock     func() time.Time

	mu             sync.Mutex
	burstRemaining int
	motionToday    int
	currentDate    string
	captureFailing bool
	status         Status
}

// New constructs a scheduler. Camera, Detector, Sync, and Settings are
// required; Journal, Notifier, and Telemetry may be nil.
func New(opts Options) *Scheduler {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	s := &Scheduler{
		site:      opts.Site,
		motionCfg: opts.Motion,
		settings:  opts.Settings,
		camera:    opts.Camera,
		detector:  opts.Detector,
		sync:      opts.Sync,
		journal:   opts.Journal,
		notifier:  opts.Notifier,
		telemetry: opts.Telemetry,
		logger:    logging.WithComponent(logger, "scheduler"),
		sessionID: opts.SessionID,
		clock:     clock,
	}
	s.currentDate = s.clock().Format("2006-01-02")
	s.status.SessionID = opts.SessionID
	return s
}

// Run executes capture cycles until the context is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("capture loop started", logging.String(logging.FieldSessionID, s.sessionID))
	for {
		interval := s.Step(ctx)
		select {
		case <-ctx.Done():
			s.logger.Info("capture loop stopped")
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Step runs one capture cycle and returns how long to wait before the next
// one. Every failure path still returns a sane interval; the loop never
// stalls.
func (s *Scheduler) Step(ctx context.Context) time.Duration {
	now := s.clock()
	s.rolloverIfNewDay(now)

	snap, err := s.settings.Current()
	if err != nil {
		s.logger.Warn("settings unreadable, using defaults", logging.Error(err))
	}

	s.mu.Lock()
	isBurst := s.burstRemaining > 0
	if isBurst {
		s.burstRemaining--
	}
	s.mu.Unlock()

	daytime := s.site.IsDaytime(now)
	res, err := s.camera.Capture(ctx, camera.Request{
		Width:    snap.ResolutionWidth,
		Height:   snap.ResolutionHeight,
		Quality:  snap.JPEGQuality,
		Motion:   isBurst,
		Daytime:  daytime,
		Captured: now,
	})
	if err != nil {
		s.logger.Error("capture failed", logging.Error(err))
		s.setLastError(err)
		s.notifyCaptureError(ctx, err)
		s.finishCycle(now, snap)
		return s.nextInterval(snap)
	}

	result := s.detector.Observe(res.Frame)
	s.logger.Info("photo captured",
		logging.String(logging.FieldEventType, "capture"),
		logging.String(logging.FieldPhoto, res.Filename),
		logging.String("mode", res.Mode),
		logging.Bool("motion", result.Motion),
		logging.Float64("changed_pct", result.ChangedPct))

	if result.Motion && !isBurst {
		s.triggerBurst(ctx, res.Filename)
	}

	journalID := s.record(ctx, res, isBurst)
	s.uploadIfEnabled(ctx, res, snap, journalID)
	s.finishCycle(now, snap)

	s.mu.Lock()
	s.status.LastCapture = res.Filename
	s.status.LastCaptureAt = now
	s.status.LastError = ""
	s.captureFailing = false
	s.mu.Unlock()

	return s.nextInterval(snap)
}

// CurrentStatus returns a copy of the loop state.
func (s *Scheduler) CurrentStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.MotionEventsToday = s.motionToday
	st.BurstRemaining = s.burstRemaining
	st.Mode = s.site.Mode(s.clock())
	return st
}

// MotionEventsToday reports today's motion counter.
func (s *Scheduler) MotionEventsToday() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.motionToday
}

// rolloverIfNewDay resets the daily motion counter when the local date
// changes. The previous day's total is logged before the reset.
func (s *Scheduler) rolloverIfNewDay(now time.Time) {
	date := now.Format("2006-01-02")
	s.mu.Lock()
	defer s.mu.Unlock()
	if date == s.currentDate {
		return
	}
	s.logger.Info("daily motion counter reset",
		logging.String("date", s.currentDate),
		logging.Int("motion_events", s.motionToday))
	s.currentDate = date
	s.motionToday = 0
}

// triggerBurst starts a motion burst and fires the notification.
func (s *Scheduler) triggerBurst(ctx context.Context, filename string) {
	s.mu.Lock()
	s.motionToday++
	s.burstRemaining = s.motionCfg.BurstCount
	events := s.motionToday
	s.mu.Unlock()

	s.logger.Info("motion detected, starting burst",
		logging.String(logging.FieldEventType, "motion"),
		logging.String(logging.FieldPhoto, filename),
		logging.Int("events_today", events),
		logging.Int("burst_count", s.motionCfg.BurstCount))

	if s.notifier != nil {
		if err := s.notifier.NotifyMotionDetected(ctx, events, filename); err != nil {
			s.logger.Warn("motion notification failed", logging.Error(err))
		}
	}
}

func (s *Scheduler) record(ctx context.Context, res *camera.Result, isBurst bool) int64 {
	if s.journal == nil {
		return 0
	}
	id, err := s.journal.RecordCapture(ctx, journal.Capture{
		Filename:  res.Filename,
		Kind:      res.Kind,
		Mode:      res.Mode,
		Motion:    isBurst,
		SessionID: s.sessionID,
		CreatedAt: s.clock(),
	})
	if err != nil {
		s.logger.Warn("journal write failed", logging.Error(err))
		return 0
	}
	return id
}

func (s *Scheduler) uploadIfEnabled(ctx context.Context, res *camera.Result, snap settings.Snapshot, journalID int64) {
	if !snap.UploadEnabled || snap.UploadPath == "" {
		return
	}
	uploaded, err := s.sync.Upload(res.Path, snap.UploadPath)
	if err != nil {
		s.logger.Warn("photo upload failed", logging.Error(err),
			logging.String(logging.FieldPhoto, res.Filename))
		return
	}
	if !uploaded {
		return
	}
	if s.journal != nil && journalID != 0 {
		if err := s.journal.MarkUploaded(ctx, journalID); err != nil {
			s.logger.Warn("journal upload flag failed", logging.Error(err))
		}
	}
	if s.telemetry != nil {
		stats := s.telemetry.Collect(s.clock(), s.MotionEventsToday())
		if err := s.sync.WriteStats(snap.UploadPath, stats); err != nil {
			s.logger.Warn("telemetry write failed", logging.Error(err))
		}
	}
}

// finishCycle applies retention and bumps the cycle counter. Pruning runs on
// every cycle, including failed captures, so the local cache stays bounded
// even when the share is unreachable.
func (s *Scheduler) finishCycle(now time.Time, snap settings.Snapshot) {
	if _, err := s.sync.Prune(snap.MaxLocalPhotos); err != nil {
		s.logger.Warn("retention prune failed", logging.Error(err))
	}
	s.mu.Lock()
	s.status.Cycles++
	s.mu.Unlock()
}

// notifyCaptureError pushes one alert per outage: the first failed cycle
// notifies, consecutive failures stay quiet until a capture succeeds again.
func (s *Scheduler) notifyCaptureError(ctx context.Context, captureErr error) {
	s.mu.Lock()
	firstFailure := !s.captureFailing
	s.captureFailing = true
	s.mu.Unlock()

	if !firstFailure || s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyError(ctx, captureErr, "capture"); err != nil {
		s.logger.Warn("error notification failed", logging.Error(err))
	}
}

func (s *Scheduler) setLastError(err error) {
	s.mu.Lock()
	s.status.LastError = err.Error()
	s.mu.Unlock()
}

func (s *Scheduler) nextInterval(snap settings.Snapshot) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.burstRemaining > 0 {
		return time.Duration(s.motionCfg.BurstInterval) * time.Second
	}
	return time.Duration(snap.CaptureInterval) * time.Second
}

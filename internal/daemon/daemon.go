// Package daemon wires the capture loop, the dashboard, and the capture
// journal together and enforces single-instance execution.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"birdhouse/internal/camera"
	"birdhouse/internal/config"
	"birdhouse/internal/journal"
	"birdhouse/internal/logging"
	"birdhouse/internal/motion"
	"birdhouse/internal/notifications"
	"birdhouse/internal/preflight"
	"birdhouse/internal/scheduler"
	"birdhouse/internal/settings"
	"birdhouse/internal/solar"
	"birdhouse/internal/storage"
	"birdhouse/internal/telemetry"
	"birdhouse/internal/web"
)

// Daemon coordinates the background services.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	settings  *settings.Store
	journal   *journal.Store
	scheduler *scheduler.Scheduler
	dashboard *web.Server
	sessionID string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	SessionID    string
	Loop         scheduler.Status
	JournalPath  string
	LockFilePath string
	Checks       []preflight.Result
}

// Option overrides a collaborator, primarily for tests.
type Option func(*options)

type options struct {
	cameraOpts []camera.Option
	notifier   notifications.Service
}

// WithCameraOptions passes options through to the camera client.
func WithCameraOptions(opts ...camera.Option) Option {
	return func(o *options) { o.cameraOpts = append(o.cameraOpts, opts...) }
}

// WithNotifier replaces the configured notification service.
func WithNotifier(svc notifications.Service) Option {
	return func(o *options) { o.notifier = svc }
}

// New constructs a daemon with all collaborators wired from the config.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires a config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	sessionID := uuid.NewString()
	store := settings.NewStore(cfg.Paths.SettingsFile)

	jrn, err := journal.Open(cfg.Paths.JournalPath)
	if err != nil {
		// The journal is observability only; run without it.
		logger.Warn("capture journal unavailable", logging.Error(err))
		jrn = nil
	}

	cam, err := camera.New(cfg.Camera, cfg.Paths.PhotosDir, o.cameraOpts...)
	if err != nil {
		_ = jrn.Close()
		return nil, fmt.Errorf("camera client: %w", err)
	}

	notifier := o.notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg.Notifications)
	}

	collector := telemetry.NewCollector(cfg.Paths.PhotosDir)
	sync := storage.NewSync(cfg.Paths.PhotosDir, logger)

	schedOpts := scheduler.Options{
		Site: solar.Site{
			Latitude:       cfg.Solar.Latitude,
			Longitude:      cfg.Solar.Longitude,
			UTCOffsetHours: cfg.Solar.UTCOffsetHours,
		},
		Motion:    cfg.Motion,
		Settings:  store,
		Camera:    cam,
		Detector:  motion.NewDetector(cfg.Motion.PixelDiffThreshold, cfg.Motion.ChangedPctThreshold),
		Sync:      sync,
		Notifier:  notifierAdapter{notifier},
		Telemetry: collector,
		Logger:    logger,
		SessionID: sessionID,
	}
	if jrn != nil {
		schedOpts.Journal = jrn
	}
	sched := scheduler.New(schedOpts)

	var dashboard *web.Server
	if cfg.Dashboard.Enabled {
		dashboard, err = web.NewServer(cfg.Dashboard.Bind, cfg.Paths.PhotosDir, store, sched, collector, logger)
		if err != nil {
			_ = jrn.Close()
			return nil, fmt.Errorf("dashboard: %w", err)
		}
	}

	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		settings:  store,
		journal:   jrn,
		scheduler: sched,
		dashboard: dashboard,
		sessionID: sessionID,
		lockPath:  filepath.Join(cfg.Paths.LogDir, "birdhoused.lock"),
		lock:      flock.New(filepath.Join(cfg.Paths.LogDir, "birdhoused.lock")),
	}, nil
}

// Start acquires the daemon lock and launches the capture loop and the
// dashboard.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another birdhouse daemon instance is already running")
	}

	snap, _ := d.settings.Current()
	for _, check := range preflight.RunAll(d.cfg, snap) {
		if check.Passed {
			d.logger.Debug("preflight ok",
				logging.String("check", check.Name),
				logging.String("detail", check.Detail))
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail))
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.dashboard != nil {
		if err := d.dashboard.Start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx, d.cancel = nil, nil
			return err
		}
	}

	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		_ = d.scheduler.Run(d.ctx)
	}()

	d.running.Store(true)
	d.logger.Info("birdhouse daemon started",
		logging.String(logging.FieldSessionID, d.sessionID),
		logging.String("lock", d.lockPath))
	return nil
}

// Stop halts the loop and dashboard and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.done != nil {
		<-d.done
		d.done = nil
	}
	if d.dashboard != nil {
		d.dashboard.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("birdhouse daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.journal.Close()
}

// SessionID returns this run's identifier, stamped on journal rows and logs.
func (d *Daemon) SessionID() string {
	return d.sessionID
}

// Journal returns the capture journal, possibly nil.
func (d *Daemon) Journal() *journal.Store {
	return d.journal
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	snap, _ := d.settings.Current()
	journalPath := ""
	if d.journal != nil {
		journalPath = d.journal.Path()
	}
	return Status{
		Running:      d.running.Load(),
		SessionID:    d.sessionID,
		Loop:         d.scheduler.CurrentStatus(),
		JournalPath:  journalPath,
		LockFilePath: d.lockPath,
		Checks:       preflight.RunAll(d.cfg, snap),
	}
}

// notifierAdapter narrows the notification service to the scheduler's needs.
type notifierAdapter struct {
	svc notifications.Service
}

func (a notifierAdapter) NotifyMotionDetected(ctx context.Context, eventsToday int, filename string) error {
	return a.svc.NotifyMotionDetected(ctx, eventsToday, filename)
}

func (a notifierAdapter) NotifyError(ctx context.Context, err error, contextLabel string) error {
	return a.svc.NotifyError(ctx, err, contextLabel)
}

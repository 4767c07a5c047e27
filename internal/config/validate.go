package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration values for consistency. It returns the first
// problem found.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.PhotosDir) == "" {
		return errors.New("paths.photos_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir is required")
	}
	if strings.TrimSpace(c.Paths.SettingsFile) == "" {
		return errors.New("paths.settings_file is required")
	}

	if c.Solar.Latitude < -90 || c.Solar.Latitude > 90 {
		return fmt.Errorf("solar.latitude %v out of range [-90, 90]", c.Solar.Latitude)
	}
	if c.Solar.Longitude < -180 || c.Solar.Longitude > 180 {
		return fmt.Errorf("solar.longitude %v out of range [-180, 180]", c.Solar.Longitude)
	}
	if c.Solar.UTCOffsetHours < -12 || c.Solar.UTCOffsetHours > 14 {
		return fmt.Errorf("solar.utc_offset_hours %v out of range [-12, 14]", c.Solar.UTCOffsetHours)
	}

	if c.Camera.Binary == "" {
		return errors.New("camera.binary is required")
	}
	if c.Camera.CaptureTimeout <= 0 {
		return fmt.Errorf("camera.capture_timeout must be positive, got %d", c.Camera.CaptureTimeout)
	}
	if c.Camera.NightShutterUS <= 0 {
		return fmt.Errorf("camera.night_shutter_us must be positive, got %d", c.Camera.NightShutterUS)
	}
	if c.Camera.NightGain <= 0 {
		return fmt.Errorf("camera.night_gain must be positive, got %d", c.Camera.NightGain)
	}

	if c.Motion.PixelDiffThreshold < 1 || c.Motion.PixelDiffThreshold > 255 {
		return fmt.Errorf("motion.pixel_diff_threshold %d out of range [1, 255]", c.Motion.PixelDiffThreshold)
	}
	if c.Motion.ChangedPctThreshold <= 0 || c.Motion.ChangedPctThreshold > 100 {
		return fmt.Errorf("motion.changed_pct_threshold %v out of range (0, 100]", c.Motion.ChangedPctThreshold)
	}
	if c.Motion.BurstCount < 0 {
		return fmt.Errorf("motion.burst_count must not be negative, got %d", c.Motion.BurstCount)
	}
	if c.Motion.BurstInterval <= 0 {
		return fmt.Errorf("motion.burst_interval must be positive, got %d", c.Motion.BurstInterval)
	}

	if c.Dashboard.Enabled && c.Dashboard.Bind == "" {
		return errors.New("dashboard.bind is required when dashboard.enabled")
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format %q unsupported (console or json)", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return fmt.Errorf("logging.retention_days must not be negative, got %d", c.Logging.RetentionDays)
	}
	return nil
}

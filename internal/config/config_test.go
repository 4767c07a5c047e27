package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := Load(missing)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != missing {
		t.Fatalf("resolved path mismatch: %q", resolved)
	}
	if cfg.Camera.Binary != "libcamera-still" {
		t.Fatalf("unexpected default camera binary: %q", cfg.Camera.Binary)
	}
	if cfg.Motion.BurstCount != 15 || cfg.Motion.BurstInterval != 10 {
		t.Fatalf("unexpected burst defaults: %+v", cfg.Motion)
	}
	if cfg.Solar.Latitude != 39.74 {
		t.Fatalf("unexpected default latitude: %v", cfg.Solar.Latitude)
	}
}

func TestLoadOverridesAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
photos_dir = "` + dir + `/photos"

[motion]
changed_pct_threshold = 5.5

[camera]
binary = " rpicam-still "
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Motion.ChangedPctThreshold != 5.5 {
		t.Fatalf("override not applied: %v", cfg.Motion.ChangedPctThreshold)
	}
	if cfg.Camera.Binary != "rpicam-still" {
		t.Fatalf("binary not trimmed: %q", cfg.Camera.Binary)
	}
	if !filepath.IsAbs(cfg.Paths.PhotosDir) {
		t.Fatalf("photos dir not absolute: %q", cfg.Paths.PhotosDir)
	}
	// Untouched sections keep defaults.
	if cfg.Camera.NightGain != 8 {
		t.Fatalf("night gain default lost: %d", cfg.Camera.NightGain)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"latitude", func(c *Config) { c.Solar.Latitude = 95 }, "latitude"},
		{"pixel threshold", func(c *Config) { c.Motion.PixelDiffThreshold = 0 }, "pixel_diff_threshold"},
		{"changed pct", func(c *Config) { c.Motion.ChangedPctThreshold = 0 }, "changed_pct_threshold"},
		{"burst interval", func(c *Config) { c.Motion.BurstInterval = 0 }, "burst_interval"},
		{"capture timeout", func(c *Config) { c.Camera.CaptureTimeout = -1 }, "capture_timeout"},
		{"log format", func(c *Config) { c.Logging.Format = "yaml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatal(err)
			}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config does not validate: %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	got, err := ExpandPath("~/photos")
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join(home, "photos") {
		t.Fatalf("unexpected expansion: %q", got)
	}
}

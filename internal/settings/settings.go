// Package settings holds the operator-adjustable capture settings. They live
// in a small JSON file that the capture loop re-reads every iteration, so an
// edit (manual or via the dashboard) takes effect on the next cycle without a
// daemon restart.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"birdhouse/internal/fileutil"
)

// Snapshot is an immutable view of the runtime settings for one loop
// iteration.
type Snapshot struct {
	CaptureInterval  int    `json:"capture_interval"`
	ResolutionWidth  int    `json:"resolution_width"`
	ResolutionHeight int    `json:"resolution_height"`
	JPEGQuality      int    `json:"jpeg_quality"`
	UploadEnabled    bool   `json:"upload_enabled"`
	UploadPath       string `json:"upload_path"`
	MaxLocalPhotos   int    `json:"max_local_photos"`
}

// Defaults returns the built-in settings used when the file or individual
// keys are absent.
func Defaults() Snapshot {
	return Snapshot{
		CaptureInterval:  120,
		ResolutionWidth:  1920,
		ResolutionHeight: 1080,
		JPEGQuality:      85,
		UploadEnabled:    true,
		UploadPath:       "/mnt/birdhouse-cloud",
		MaxLocalPhotos:   100,
	}
}

// Provider supplies the current settings snapshot. The scheduler calls this
// once per iteration.
type Provider interface {
	Current() (Snapshot, error)
}

// Store reads and writes the settings file.
type Store struct {
	path string
}

// NewStore returns a store bound to the given settings file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the underlying settings file location.
func (s *Store) Path() string {
	return s.path
}

// Current loads the settings file, overlaying saved keys on the defaults.
// A missing file is not an error; unknown keys are ignored. On a read or
// parse error the defaults are returned alongside the error so callers can
// proceed degraded.
func (s *Store) Current() (Snapshot, error) {
	snap := Defaults()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snap, nil
		}
		return snap, fmt.Errorf("read settings: %w", err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return Defaults(), fmt.Errorf("parse settings: %w", err)
	}
	return snap.clamped(), nil
}

// Save persists the snapshot atomically.
func (s *Store) Save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap.clamped(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// clamped pulls out-of-range values back to workable ones. Zero values for
// numeric fields mean the key was absent or nonsensical; they fall back to
// defaults.
func (s Snapshot) clamped() Snapshot {
	def := Defaults()
	if s.CaptureInterval <= 0 {
		s.CaptureInterval = def.CaptureInterval
	}
	if s.ResolutionWidth <= 0 {
		s.ResolutionWidth = def.ResolutionWidth
	}
	if s.ResolutionHeight <= 0 {
		s.ResolutionHeight = def.ResolutionHeight
	}
	if s.JPEGQuality <= 0 || s.JPEGQuality > 100 {
		s.JPEGQuality = def.JPEGQuality
	}
	if s.MaxLocalPhotos <= 0 {
		s.MaxLocalPhotos = def.MaxLocalPhotos
	}
	return s
}

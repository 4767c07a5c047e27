// Package storage mirrors photos to network storage and enforces the local
// retention cap. The local photos directory is the source of truth; the
// mirror is best effort and never blocks capture.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"birdhouse/internal/fileutil"
	"birdhouse/internal/logging"
	"birdhouse/internal/telemetry"
)

// StatsFilename is the telemetry snapshot mirrored next to the photos.
const StatsFilename = "pi_stats.json"

// Sync copies photos to an upload destination and prunes the local cache.
type Sync struct {
	photosDir string
	logger    *slog.Logger
}

// NewSync returns a sync bound to the local photos directory.
func NewSync(photosDir string, logger *slog.Logger) *Sync {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sync{
		photosDir: photosDir,
		logger:    logging.WithComponent(logger, "storage"),
	}
}

// Upload mirrors one local photo into destDir and removes the local copy on
// success. When the destination directory is not reachable (unmounted share)
// the photo is kept locally and no error is returned; retention pruning still
// applies to it later.
func (s *Sync) Upload(localPath, destDir string) (bool, error) {
	info, err := os.Stat(destDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("upload destination unavailable, keeping photo local",
			logging.String("dest", destDir),
			logging.String(logging.FieldPhoto, filepath.Base(localPath)))
		return false, nil
	}

	destPath := filepath.Join(destDir, filepath.Base(localPath))
	if err := fileutil.CopyFileVerified(localPath, destPath); err != nil {
		return false, fmt.Errorf("mirror photo: %w", err)
	}
	if err := os.Remove(localPath); err != nil {
		return false, fmt.Errorf("remove local photo after mirror: %w", err)
	}

	s.logger.Info("photo mirrored",
		logging.String(logging.FieldPhoto, filepath.Base(localPath)),
		logging.String("dest", destDir))
	return true, nil
}

// WriteStats replaces the telemetry snapshot file in destDir. Failures are
// reported but the destination being unavailable is not an error.
func (s *Sync) WriteStats(destDir string, snap telemetry.Snapshot) error {
	info, err := os.Stat(destDir)
	if err != nil || !info.IsDir() {
		return nil
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := fileutil.WriteFileAtomic(filepath.Join(destDir, StatsFilename), data, 0o644); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// Prune deletes the oldest local photos until at most max remain. It runs
// every cycle regardless of upload state so an unreachable share cannot fill
// the card.
func (s *Sync) Prune(max int) (int, error) {
	if max <= 0 {
		return 0, nil
	}
	photos, err := s.localPhotos()
	if err != nil {
		return 0, err
	}
	if len(photos) <= max {
		return 0, nil
	}

	removed := 0
	for _, photo := range photos[:len(photos)-max] {
		if err := os.Remove(photo.path); err != nil {
			s.logger.Warn("prune failed for photo",
				logging.String(logging.FieldPhoto, filepath.Base(photo.path)),
				logging.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("pruned local photos",
			logging.Int("removed", removed),
			logging.Int("retained", len(photos)-removed))
	}
	return removed, nil
}

// LocalCount reports how many photos are currently cached locally.
func (s *Sync) LocalCount() (int, error) {
	photos, err := s.localPhotos()
	if err != nil {
		return 0, err
	}
	return len(photos), nil
}

type photoFile struct {
	path    string
	modTime int64
}

// localPhotos lists local JPEGs oldest first by modification time.
func (s *Sync) localPhotos() ([]photoFile, error) {
	entries, err := os.ReadDir(s.photosDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read photos directory: %w", err)
	}

	photos := make([]photoFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		photos = append(photos, photoFile{
			path:    filepath.Join(s.photosDir, entry.Name()),
			modTime: info.ModTime().UnixNano(),
		})
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].modTime < photos[j].modTime })
	return photos, nil
}

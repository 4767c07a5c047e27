package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCurrentMissingFileReturnsDefaults(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.json"))
	snap, err := store.Current()
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if snap != Defaults() {
		t.Fatalf("expected defaults, got %+v", snap)
	}
}

func TestCurrentOverlaysSavedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{"capture_interval": 60, "upload_enabled": false, "web_port": 5000}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := NewStore(path).Current()
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if snap.CaptureInterval != 60 {
		t.Fatalf("capture_interval not applied: %d", snap.CaptureInterval)
	}
	if snap.UploadEnabled {
		t.Fatal("upload_enabled override lost")
	}
	// Unknown key ignored, absent keys keep defaults.
	if snap.JPEGQuality != Defaults().JPEGQuality {
		t.Fatalf("jpeg_quality should default: %d", snap.JPEGQuality)
	}
}

func TestCurrentMalformedFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := NewStore(path).Current()
	if err == nil {
		t.Fatal("expected parse error")
	}
	if snap != Defaults() {
		t.Fatalf("expected defaults on parse error, got %+v", snap)
	}
}

func TestCurrentClampsOutOfRangeValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	content := `{"jpeg_quality": 400, "max_local_photos": -3}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := NewStore(path).Current()
	if err != nil {
		t.Fatal(err)
	}
	if snap.JPEGQuality != Defaults().JPEGQuality {
		t.Fatalf("jpeg_quality not clamped: %d", snap.JPEGQuality)
	}
	if snap.MaxLocalPhotos != Defaults().MaxLocalPhotos {
		t.Fatalf("max_local_photos not clamped: %d", snap.MaxLocalPhotos)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "settings.json"))
	want := Defaults()
	want.CaptureInterval = 30
	want.UploadPath = "/mnt/elsewhere"

	if err := store.Save(want); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := store.Current()
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, want)
	}
}

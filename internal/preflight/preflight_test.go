package preflight

import (
	"os"
	"path/filepath"
	"testing"

	"birdhouse/internal/config"
	"birdhouse/internal/settings"
)

func TestCheckDirectoryAccessOK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccessMissing(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "absent"))
	if result.Passed {
		t.Fatal("expected failure for missing directory")
	}
}

func TestCheckDirectoryAccessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", path)
	if result.Passed {
		t.Fatal("expected failure for a plain file")
	}
}

func TestCheckCameraBinary(t *testing.T) {
	if result := CheckCameraBinary(""); result.Passed {
		t.Fatal("empty binary must fail")
	}
	// sh is present on any system these tests run on.
	if result := CheckCameraBinary("sh"); !result.Passed {
		t.Fatalf("expected sh on PATH: %s", result.Detail)
	}
	if result := CheckCameraBinary("definitely-not-a-real-binary-xyz"); result.Passed {
		t.Fatal("missing binary must fail")
	}
}

func TestCheckUploadDestinationUnmounted(t *testing.T) {
	result := CheckUploadDestination(filepath.Join(t.TempDir(), "cloud"))
	if result.Passed {
		t.Fatal("unmounted destination should report not ready")
	}
}

func TestRunAllSkipsUploadWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.PhotosDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()

	snap := settings.Defaults()
	snap.UploadEnabled = false

	results := RunAll(&cfg, snap)
	for _, r := range results {
		if r.Name == "Upload destination" {
			t.Fatal("upload check should be skipped when disabled")
		}
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 checks, got %d", len(results))
	}
}

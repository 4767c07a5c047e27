package preflight

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"

	"birdhouse/internal/config"
	"birdhouse/internal/settings"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable checks for the given config and settings.
func RunAll(cfg *config.Config, snap settings.Snapshot) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckCameraBinary(cfg.Camera.Binary),
		CheckDirectoryAccess("Photos directory", cfg.Paths.PhotosDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if snap.UploadEnabled && snap.UploadPath != "" {
		results = append(results, CheckUploadDestination(snap.UploadPath))
	}
	return results
}

// CheckCameraBinary verifies the still-capture utility is on PATH.
func CheckCameraBinary(binary string) Result {
	const name = "Camera utility"
	if binary == "" {
		return Result{Name: name, Detail: "no binary configured"}
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not found on PATH", binary)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckUploadDestination reports whether the mirror directory is mounted and
// writable. Photos are retained locally when it is not, so this check is
// informational.
func CheckUploadDestination(path string) Result {
	const name = "Upload destination"
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (not mounted, photos kept local)", path)}
	}
	if err := unix.Access(path, unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (mounted, writable)", path)}
}

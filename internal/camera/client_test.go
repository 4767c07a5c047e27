package camera_test

import (
	"context"
	"errors"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"birdhouse/internal/camera"
	"birdhouse/internal/config"
)

func testCameraConfig() config.Camera {
	return config.Camera{
		Binary:         "libcamera-still",
		CaptureTimeout: 30,
		DayTimeoutMS:   5000,
		NightShutterUS: 1_000_000,
		NightGain:      8,
		AWB:            "tungsten",
	}
}

// jpegWritingExecutor mimics libcamera-still by writing a JPEG at the -o path.
type jpegWritingExecutor struct {
	fill  uint8
	calls [][]string
	err   error
}

func (e *jpegWritingExecutor) Run(ctx context.Context, binary string, args []string) error {
	e.calls = append(e.calls, append([]string(nil), args...))
	if e.err != nil {
		return e.err
	}
	out := outputPath(args)
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	for i := range img.Pix {
		img.Pix[i] = e.fill
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, img, nil)
}

func outputPath(args []string) string {
	for i, arg := range args {
		if arg == "-o" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func hasArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

func TestCaptureNamingContract(t *testing.T) {
	dir := t.TempDir()
	client, err := camera.New(testCameraConfig(), dir, camera.WithExecutor(&jpegWritingExecutor{fill: 128}))
	if err != nil {
		t.Fatal(err)
	}

	captured := time.Date(2026, 8, 25, 14, 30, 5, 0, time.Local)
	res, err := client.Capture(context.Background(), camera.Request{
		Width: 64, Height: 48, Quality: 85, Daytime: true, Captured: captured,
	})
	if err != nil {
		t.Fatalf("Capture returned error: %v", err)
	}
	if res.Filename != "bird_20260825_143005.jpg" {
		t.Fatalf("unexpected filename: %q", res.Filename)
	}
	if res.Kind != "bird" || res.Mode != "day" {
		t.Fatalf("unexpected kind/mode: %q/%q", res.Kind, res.Mode)
	}
	if res.Path != filepath.Join(dir, res.Filename) {
		t.Fatalf("unexpected path: %q", res.Path)
	}
	if res.Frame == nil {
		t.Fatal("expected stamped frame in result")
	}
}

func TestCaptureMotionTagUsesMotionPrefix(t *testing.T) {
	client, err := camera.New(testCameraConfig(), t.TempDir(), camera.WithExecutor(&jpegWritingExecutor{}))
	if err != nil {
		t.Fatal(err)
	}
	res, err := client.Capture(context.Background(), camera.Request{
		Width: 64, Height: 48, Quality: 85, Motion: true, Daytime: true,
		Captured: time.Date(2026, 8, 25, 14, 30, 5, 0, time.Local),
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != "motion" || res.Filename != "motion_20260825_143005.jpg" {
		t.Fatalf("unexpected motion naming: %q / %q", res.Kind, res.Filename)
	}
}

func TestCaptureExposureProfiles(t *testing.T) {
	exec := &jpegWritingExecutor{}
	client, err := camera.New(testCameraConfig(), t.TempDir(), camera.WithExecutor(exec))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := client.Capture(context.Background(), camera.Request{Width: 64, Height: 48, Quality: 85, Daytime: true}); err != nil {
		t.Fatal(err)
	}
	day := exec.calls[0]
	if !hasArg(day, "--timeout") || hasArg(day, "--shutter") {
		t.Fatalf("day profile args wrong: %v", day)
	}

	if _, err := client.Capture(context.Background(), camera.Request{Width: 64, Height: 48, Quality: 85, Daytime: false}); err != nil {
		t.Fatal(err)
	}
	night := exec.calls[1]
	if !hasArg(night, "--immediate") || !hasArg(night, "--shutter") || !hasArg(night, "--gain") {
		t.Fatalf("night profile args wrong: %v", night)
	}
	if !hasArg(night, "tungsten") {
		t.Fatalf("awb missing from args: %v", night)
	}
}

func TestCaptureToolFailure(t *testing.T) {
	dir := t.TempDir()
	client, err := camera.New(testCameraConfig(), dir, camera.WithExecutor(&jpegWritingExecutor{err: errors.New("exit status 1")}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Capture(context.Background(), camera.Request{Width: 64, Height: 48, Quality: 85, Daytime: true})
	if !errors.Is(err, camera.ErrTool) {
		t.Fatalf("expected ErrTool, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("failed capture left files behind: %v", entries)
	}
}

func TestCaptureTimeout(t *testing.T) {
	client, err := camera.New(testCameraConfig(), t.TempDir(), camera.WithExecutor(&jpegWritingExecutor{err: context.DeadlineExceeded}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.Capture(context.Background(), camera.Request{Width: 64, Height: 48, Quality: 85, Daytime: true})
	if !errors.Is(err, camera.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCaptureStampsGrayscaleFile(t *testing.T) {
	dir := t.TempDir()
	client, err := camera.New(testCameraConfig(), dir, camera.WithExecutor(&jpegWritingExecutor{fill: 128}))
	if err != nil {
		t.Fatal(err)
	}
	res, err := client.Capture(context.Background(), camera.Request{Width: 64, Height: 48, Quality: 85, Daytime: true})
	if err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(res.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("stamped file does not decode: %v", err)
	}
	if _, ok := decoded.(*image.Gray); !ok {
		t.Fatalf("stamped file is not grayscale: %T", decoded)
	}

	// The label backdrop overwrites part of the uniform frame.
	var dark, light bool
	for _, p := range res.Frame.Pix {
		if p < 10 {
			dark = true
		}
		if p > 245 {
			light = true
		}
	}
	if !dark || !light {
		t.Fatal("expected label backdrop and glyphs burned into the frame")
	}
}

// garbageExecutor writes a non-JPEG output file.
type garbageExecutor struct{}

func (garbageExecutor) Run(ctx context.Context, binary string, args []string) error {
	return os.WriteFile(outputPath(args), []byte("not a jpeg"), 0o644)
}

func TestCaptureUndecodableOutputIsError(t *testing.T) {
	dir := t.TempDir()
	client, err := camera.New(testCameraConfig(), dir, camera.WithExecutor(garbageExecutor{}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Capture(context.Background(), camera.Request{Width: 64, Height: 48, Quality: 85, Daytime: true}); err == nil {
		t.Fatal("expected decode error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("undecodable capture left files behind: %v", entries)
	}
}

func TestParseFilename(t *testing.T) {
	kind, captured, ok := camera.ParseFilename("motion_20260825_143005.jpg")
	if !ok || kind != "motion" {
		t.Fatalf("parse failed: %v %q", ok, kind)
	}
	want := time.Date(2026, 8, 25, 14, 30, 5, 0, time.Local)
	if !captured.Equal(want) {
		t.Fatalf("timestamp mismatch: %v", captured)
	}

	for _, bad := range []string{"pi_stats.json", "selfie_20260825_143005.jpg", "bird_2026.jpg", "bird_20260825_143005.png"} {
		if _, _, ok := camera.ParseFilename(bad); ok {
			t.Fatalf("expected parse failure for %q", bad)
		}
	}
}

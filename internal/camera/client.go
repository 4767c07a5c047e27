// Package camera produces stamped photo files by driving the external
// libcamera still-capture utility.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"birdhouse/internal/config"
)

var (
	// ErrTimeout marks a capture that exceeded the external-process deadline.
	ErrTimeout = errors.New("camera timeout")
	// ErrTool marks a non-zero exit from the camera utility.
	ErrTool = errors.New("camera tool error")
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps camera utility invocations and photo post-processing.
type Client struct {
	binary         string
	photosDir      string
	timeout        time.Duration
	dayTimeoutMS   int
	nightShutterUS int
	nightGain      int
	awb            string
	exec           Executor
}

// New constructs a camera client from the camera config section and the
// local photos directory.
func New(cfg config.Camera, photosDir string, opts ...Option) (*Client, error) {
	binary := strings.TrimSpace(cfg.Binary)
	if binary == "" {
		return nil, errors.New("camera binary required")
	}
	if strings.TrimSpace(photosDir) == "" {
		return nil, errors.New("photos directory required")
	}
	client := &Client{
		binary:         binary,
		photosDir:      photosDir,
		timeout:        time.Duration(cfg.CaptureTimeout) * time.Second,
		dayTimeoutMS:   cfg.DayTimeoutMS,
		nightShutterUS: cfg.NightShutterUS,
		nightGain:      cfg.NightGain,
		awb:            cfg.AWB,
		exec:           commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Request describes one capture.
type Request struct {
	Width    int
	Height   int
	Quality  int
	Motion   bool // tags the file as part of a motion burst
	Daytime  bool // selects the exposure profile
	Captured time.Time
}

// Result describes one produced photo artifact. Frame holds the stamped
// grayscale pixels so the differencer can compare without re-reading the
// file.
type Result struct {
	Path     string
	Filename string
	Kind     string // "bird" or "motion"
	Mode     string // "day" or "night"
	Frame    *image.Gray
}

// Capture invokes the camera utility once and rewrites the output as a
// stamped grayscale JPEG. The external process is bounded by the configured
// timeout; any failure leaves no photo behind for this cycle.
func (c *Client) Capture(ctx context.Context, req Request) (*Result, error) {
	if err := os.MkdirAll(c.photosDir, 0o755); err != nil {
		return nil, fmt.Errorf("create photos directory: %w", err)
	}

	now := req.Captured
	if now.IsZero() {
		now = time.Now()
	}

	kind := "bird"
	if req.Motion {
		kind = "motion"
	}
	mode := "night"
	if req.Daytime {
		mode = "day"
	}

	filename := fmt.Sprintf("%s_%s.jpg", kind, now.Format("20060102_150405"))
	path := filepath.Join(c.photosDir, filename)

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.exec.Run(runCtx, c.binary, c.buildArgs(req, path)); err != nil {
		_ = os.Remove(path)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s exceeded %s", ErrTimeout, c.binary, c.timeout)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrTool, c.binary, err)
	}

	frame, err := c.stampPhoto(path, labelText(now, mode, req.Motion), req.Quality)
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return &Result{
		Path:     path,
		Filename: filename,
		Kind:     kind,
		Mode:     mode,
		Frame:    frame,
	}, nil
}

func (c *Client) buildArgs(req Request, outPath string) []string {
	args := []string{
		"--width", strconv.Itoa(req.Width),
		"--height", strconv.Itoa(req.Height),
		"--quality", strconv.Itoa(req.Quality),
		"--nopreview",
		"-o", outPath,
	}
	if req.Daytime {
		args = append(args, "--timeout", strconv.Itoa(c.dayTimeoutMS))
	} else {
		args = append(args,
			"--immediate",
			"--shutter", strconv.Itoa(c.nightShutterUS),
			"--gain", strconv.Itoa(c.nightGain),
		)
	}
	if c.awb != "" {
		args = append(args, "--awb", c.awb)
	}
	return args
}

// stampPhoto converts the captured JPEG to grayscale, burns the label into
// the bottom-left corner, and atomically replaces the file. The returned
// frame is the stamped image, so consecutive frames are compared exactly as
// they are stored.
func (c *Client) stampPhoto(path, label string, quality int) (*image.Gray, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	decoded, err := jpeg.Decode(in)
	_ = in.Close()
	if err != nil {
		return nil, fmt.Errorf("decode capture: %w", err)
	}

	gray := toGray(decoded)
	drawLabel(gray, label)

	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gray, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode stamped photo: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write stamped photo: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("replace photo: %w", err)
	}
	return gray, nil
}

func labelText(now time.Time, mode string, motion bool) string {
	text := now.Format("2006-01-02  15:04:05") + "  [" + mode + "]"
	if motion {
		text += "  *MOTION*"
	}
	return text
}

// ParseFilename extracts the capture kind and timestamp from a photo
// filename following the {bird|motion}_{YYYYMMDD}_{HHMMSS}.jpg contract.
func ParseFilename(name string) (kind string, captured time.Time, ok bool) {
	base := strings.TrimSuffix(name, ".jpg")
	if base == name {
		return "", time.Time{}, false
	}
	parts := strings.SplitN(base, "_", 2)
	if len(parts) != 2 {
		return "", time.Time{}, false
	}
	kind = parts[0]
	if kind != "bird" && kind != "motion" {
		return "", time.Time{}, false
	}
	captured, err := time.ParseInLocation("20060102_150405", parts[1], time.Local)
	if err != nil {
		return "", time.Time{}, false
	}
	return kind, captured, true
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	detail := strings.TrimSpace(stderr.String())
	if len(detail) > 512 {
		detail = detail[len(detail)-512:]
	}
	if detail != "" {
		return fmt.Errorf("%w: %s", err, detail)
	}
	return err
}

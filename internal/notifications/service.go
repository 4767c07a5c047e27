package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"birdhouse/internal/config"
)

const userAgent = "Birdhouse-Go/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyMotionDetected(ctx context.Context, eventsToday int, filename string) error
	NotifyDailyDigest(ctx context.Context, subject, body string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		sendMotion: cfg.Motion,
		sendDigest: cfg.Digest,
		sendErrors: cfg.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	sendMotion bool
	sendDigest bool
	sendErrors bool
}

func (n *ntfyService) NotifyMotionDetected(ctx context.Context, eventsToday int, filename string) error {
	if !n.sendMotion {
		return nil
	}
	data := payload{
		title:   "Birdhouse - Motion",
		message: fmt.Sprintf("Motion detected (event #%d today): %s", eventsToday, strings.TrimSpace(filename)),
		tags:    []string{"birdhouse", "motion"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDailyDigest(ctx context.Context, subject, body string) error {
	if !n.sendDigest {
		return nil
	}
	data := payload{
		title:   strings.TrimSpace(subject),
		message: body,
		tags:    []string{"birdhouse", "digest"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Birdhouse - Error",
		message:  builder.String(),
		tags:     []string{"birdhouse", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Birdhouse - Test",
		message:  "Notification system test",
		tags:     []string{"birdhouse", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyMotionDetected(context.Context, int, string) error { return nil }
func (noopService) NotifyDailyDigest(context.Context, string, string) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error        { return nil }
func (noopService) TestNotification(context.Context) error                  { return nil }

package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"birdhouse/internal/config"
	"birdhouse/internal/notifications"
)

func enabledConfig(topic string) config.Notifications {
	return config.Notifications{
		NtfyTopic:      topic,
		RequestTimeout: 5,
		Motion:         true,
		Digest:         true,
		Errors:         true,
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(config.Notifications{})
	if err := svc.NotifyMotionDetected(context.Background(), 1, "motion_20260825_090000.jpg"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "motion",
			notify: func(svc notifications.Service) error {
				return svc.NotifyMotionDetected(context.Background(), 3, "motion_20260825_090000.jpg")
			},
			expectTitle:   "Birdhouse - Motion",
			expectMessage: "Motion detected (event #3 today): motion_20260825_090000.jpg",
			expectTags:    "birdhouse,motion",
		},
		{
			name: "digest",
			notify: func(svc notifications.Service) error {
				return svc.NotifyDailyDigest(context.Background(), "Birdhouse Daily Digest", "42 photos today")
			},
			expectTitle:   "Birdhouse Daily Digest",
			expectMessage: "42 photos today",
			expectTags:    "birdhouse,digest",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("camera timeout"), "capture")
			},
			expectTitle:    "Birdhouse - Error",
			expectMessage:  "Error with capture: camera timeout",
			expectTags:     "birdhouse,error,alert",
			expectPriority: "high",
		},
		{
			name: "test",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Birdhouse - Test",
			expectMessage:  "Notification system test",
			expectTags:     "birdhouse,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			svc := notifications.NewService(enabledConfig(server.URL))
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonorsCategoryGates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected call for silenced category: %s", r.URL.String())
	}))
	defer server.Close()

	cfg := enabledConfig(server.URL)
	cfg.Motion = false
	cfg.Digest = false
	cfg.Errors = false

	svc := notifications.NewService(cfg)
	if err := svc.NotifyMotionDetected(context.Background(), 1, "x.jpg"); err != nil {
		t.Fatalf("silenced motion: %v", err)
	}
	if err := svc.NotifyDailyDigest(context.Background(), "s", "b"); err != nil {
		t.Fatalf("silenced digest: %v", err)
	}
	if err := svc.NotifyError(context.Background(), errors.New("x"), "y"); err != nil {
		t.Fatalf("silenced errors: %v", err)
	}
}

func TestNtfyServiceSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := notifications.NewService(enabledConfig(server.URL))
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}

// Package web serves the dashboard: latest photo, gallery, device health,
// and the runtime settings editor.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"birdhouse/internal/logging"
	"birdhouse/internal/scheduler"
	"birdhouse/internal/settings"
	"birdhouse/internal/telemetry"
)

//go:embed templates/index.html
var templateFS embed.FS

// StatusProvider exposes the capture loop state. *scheduler.Scheduler
// satisfies this.
type StatusProvider interface {
	CurrentStatus() scheduler.Status
	MotionEventsToday() int
}

// Collector gathers device health on demand.
type Collector interface {
	Collect(now time.Time, motionToday int) telemetry.Snapshot
}

// Server is the dashboard HTTP server.
type Server struct {
	bind      string
	photosDir string
	settings  *settings.Store
	status    StatusProvider
	telemetry Collector
	logger    *slog.Logger

	tmpl     *template.Template
	listener net.Listener
	server   *http.Server
}

// NewServer builds the dashboard server. status and telemetry may be nil
// (the CLI-only paths use the server without a running loop).
func NewServer(bind, photosDir string, store *settings.Store, status StatusProvider, collector Collector, logger *slog.Logger) (*Server, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, nil
	}
	tmpl, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}

	srv := &Server{
		bind:      bind,
		photosDir: photosDir,
		settings:  store,
		status:    status,
		telemetry: collector,
		logger:    logging.WithComponent(logger, "dashboard"),
		tmpl:      tmpl,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleDashboard)
	mux.HandleFunc("/gallery", srv.handleGallery)
	mux.HandleFunc("/photos/", srv.handlePhoto)
	mux.HandleFunc("/api/stats", srv.handleStats)
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/settings", srv.handleSettings)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler exposes the route mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving and shuts down when ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("dashboard listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("dashboard server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("dashboard listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

type pageData struct {
	Gallery bool
	Latest  string
	Photos  []string
	Stats   statsPayload
}

type statsPayload struct {
	telemetry.Snapshot
	PhotoCount int `json:"photo_count"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	photos := s.photoList()
	data := pageData{Stats: s.stats(photos)}
	if len(photos) > 0 {
		data.Latest = photos[0]
	}
	s.render(w, data)
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	photos := s.photoList()
	s.render(w, pageData{Gallery: true, Photos: photos, Stats: s.stats(photos)})
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/photos/")
	// No separators: a photo name is always a bare filename.
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".jpg") {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.photosDir, name))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.stats(s.photoList()))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.status == nil {
		s.writeJSON(w, http.StatusOK, scheduler.Status{})
		return
	}
	s.writeJSON(w, http.StatusOK, s.status.CurrentStatus())
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		s.writeError(w, http.StatusNotFound, "settings store unavailable")
		return
	}
	switch r.Method {
	case http.MethodGet:
		snap, err := s.settings.Current()
		if err != nil {
			s.logger.Warn("settings read failed, serving defaults", logging.Error(err))
		}
		s.writeJSON(w, http.StatusOK, snap)
	case http.MethodPost:
		// Overlay the posted keys on the current values so a partial
		// update does not zero the rest.
		snap, _ := s.settings.Current()
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&snap); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid settings payload")
			return
		}
		if err := s.settings.Save(snap); err != nil {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		saved, _ := s.settings.Current()
		s.writeJSON(w, http.StatusOK, saved)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// photoList returns photo filenames sorted newest-first. The timestamped
// naming makes lexical order chronological.
func (s *Server) photoList() []string {
	entries, err := os.ReadDir(s.photosDir)
	if err != nil {
		return nil
	}
	var photos []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		photos = append(photos, entry.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(photos)))
	return photos
}

func (s *Server) stats(photos []string) statsPayload {
	payload := statsPayload{PhotoCount: len(photos)}
	if s.telemetry != nil {
		motionToday := 0
		if s.status != nil {
			motionToday = s.status.MotionEventsToday()
		}
		payload.Snapshot = s.telemetry.Collect(time.Now(), motionToday)
	}
	return payload
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("render dashboard failed", logging.Error(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

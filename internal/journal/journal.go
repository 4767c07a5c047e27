// Package journal persists a per-capture record backed by SQLite. The
// journal is observability only; capture and sync never depend on it, and a
// journal failure must not stop the control loop.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages capture history persistence.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS captures (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT NOT NULL,
    kind TEXT NOT NULL,
    mode TEXT NOT NULL,
    motion INTEGER NOT NULL DEFAULT 0,
    uploaded INTEGER NOT NULL DEFAULT 0,
    session_id TEXT,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captures_created_at ON captures(created_at);
`

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Capture is one recorded photo event.
type Capture struct {
	ID        int64
	Filename  string
	Kind      string
	Mode      string
	Motion    bool
	Uploaded  bool
	SessionID string
	CreatedAt time.Time
}

// RecordCapture inserts a capture row and returns its identifier.
func (s *Store) RecordCapture(ctx context.Context, c Capture) (int64, error) {
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO captures (filename, kind, mode, motion, uploaded, session_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Filename,
		c.Kind,
		c.Mode,
		boolToInt(c.Motion),
		boolToInt(c.Uploaded),
		nullableString(c.SessionID),
		created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert capture: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// MarkUploaded flags a capture as mirrored to network storage.
func (s *Store) MarkUploaded(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE captures SET uploaded = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark uploaded: %w", err)
	}
	return nil
}

// DaySummary aggregates capture counts for one local calendar day.
type DaySummary struct {
	Total    int
	Regular  int
	Motion   int
	Uploaded int
}

// Summary counts captures recorded during the local day containing t.
func (s *Store) Summary(ctx context.Context, t time.Time) (DaySummary, error) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1)

	row := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1),
                COALESCE(SUM(CASE WHEN motion = 0 THEN 1 ELSE 0 END), 0),
                COALESCE(SUM(motion), 0),
                COALESCE(SUM(uploaded), 0)
         FROM captures WHERE created_at >= ? AND created_at < ?`,
		start.Format(time.RFC3339Nano),
		end.Format(time.RFC3339Nano),
	)

	var summary DaySummary
	if err := row.Scan(&summary.Total, &summary.Regular, &summary.Motion, &summary.Uploaded); err != nil {
		return DaySummary{}, fmt.Errorf("day summary: %w", err)
	}
	return summary, nil
}

// RecentCaptures returns the newest captures, most recent first.
func (s *Store) RecentCaptures(ctx context.Context, limit int) ([]Capture, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, filename, kind, mode, motion, uploaded, session_id, created_at
         FROM captures ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent captures: %w", err)
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

// MotionEvents returns motion captures recorded during the local day
// containing t, oldest first.
func (s *Store) MotionEvents(ctx context.Context, t time.Time) ([]Capture, error) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, 1)

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, filename, kind, mode, motion, uploaded, session_id, created_at
         FROM captures WHERE motion = 1 AND created_at >= ? AND created_at < ?
         ORDER BY created_at`,
		start.Format(time.RFC3339Nano),
		end.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("query motion events: %w", err)
	}
	defer rows.Close()

	var captures []Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}

func scanCapture(scanner interface{ Scan(dest ...any) error }) (Capture, error) {
	var (
		c          Capture
		motion     int
		uploaded   int
		sessionID  sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&c.ID, &c.Filename, &c.Kind, &c.Mode, &motion, &uploaded, &sessionID, &createdRaw); err != nil {
		return Capture{}, err
	}
	c.Motion = motion != 0
	c.Uploaded = uploaded != 0
	c.SessionID = sessionID.String
	if created, err := parseTimeString(createdRaw); err == nil {
		c.CreatedAt = created
	}
	return c, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

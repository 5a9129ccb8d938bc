package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the sqlite connection with the detection store queries.
type DB struct {
	*sql.DB
	Path string
}

// OpenDB opens (creating if necessary) the sqlite database at path and
// applies connection pragmas. Schema is managed by migrations; call
// MigrateUp before first use.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// WAL keeps the single writer (the frame loop) from blocking readers
	// (API and monitor queries).
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return &DB{DB: sqlDB, Path: path}, nil
}

// Session is one processing run of the daemon: fixed geometry, one
// processor instance, one uuid.
type Session struct {
	ID        string    `json:"id"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Note      string    `json:"note,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// DetectionRecord is one persisted flash detection.
type DetectionRecord struct {
	ID             int64     `json:"id"`
	SessionID      string    `json:"session_id"`
	FrameSeq       int64     `json:"frame_seq"`
	X              float64   `json:"x"`
	Y              float64   `json:"y"`
	Confidence     float64   `json:"confidence"`
	Magnitude      float64   `json:"magnitude"`
	PeakBrightness float64   `json:"peak_brightness"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateSession inserts a new session row.
func (db *DB) CreateSession(s Session) error {
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, width, height, note) VALUES (?, ?, ?, ?)`,
		s.ID, s.Width, s.Height, s.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", s.ID, err)
	}
	return nil
}

// RecordDetection persists one detection.
func (db *DB) RecordDetection(d DetectionRecord) error {
	_, err := db.Exec(
		`INSERT INTO detections (
			session_id, frame_seq, x, y, confidence, magnitude, peak_brightness
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.SessionID, d.FrameSeq, d.X, d.Y, d.Confidence, d.Magnitude, d.PeakBrightness,
	)
	if err != nil {
		return fmt.Errorf("failed to record detection: %w", err)
	}
	return nil
}

// ListDetections returns the most recent detections, newest first. A
// non-empty sessionID restricts results to that session.
func (db *DB) ListDetections(sessionID string, limit int) ([]DetectionRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT detection_id, session_id, frame_seq, x, y, confidence,
		magnitude, peak_brightness, created_at
		FROM detections`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY detection_id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	defer rows.Close()

	var out []DetectionRecord
	for rows.Next() {
		var d DetectionRecord
		if err := rows.Scan(&d.ID, &d.SessionID, &d.FrameSeq, &d.X, &d.Y,
			&d.Confidence, &d.Magnitude, &d.PeakBrightness, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountDetections returns the number of detections for a session ("" = all).
func (db *DB) CountDetections(sessionID string) (int64, error) {
	var count int64
	var err error
	if sessionID == "" {
		err = db.QueryRow(`SELECT COUNT(*) FROM detections`).Scan(&count)
	} else {
		err = db.QueryRow(`SELECT COUNT(*) FROM detections WHERE session_id = ?`, sessionID).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count detections: %w", err)
	}
	return count, nil
}

// ConfidenceValues returns all confidence values recorded since the given
// time, ascending, for quantile computation in the monitor.
func (db *DB) ConfidenceValues(since time.Time) ([]float64, error) {
	rows, err := db.Query(
		`SELECT confidence FROM detections WHERE created_at >= ? ORDER BY confidence ASC`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query confidences: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan confidence: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListSessions returns sessions, newest first.
func (db *DB) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		`SELECT session_id, width, height, note, started_at
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Width, &s.Height, &s.Note, &s.StartedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

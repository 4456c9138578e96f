package store

import (
	"database/sql"
	"encoding/json"
	"go-forum-analytics/internal/model"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// Store keeps run history in sqlite.
type Store struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT,
		spec TEXT,
		status TEXT,
		error TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS run_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		stage TEXT,
		level TEXT,
		message TEXT,
		details TEXT,
		created_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS run_warnings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		kind TEXT,
		stage TEXT,
		subject TEXT,
		message TEXT,
		row_count INTEGER,
		created_at DATETIME
	);`,
	`CREATE TABLE IF NOT EXISTS correlation_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		analysis TEXT,
		group_value TEXT,
		r REAL,
		r_squared REAL,
		n INTEGER,
		status TEXT,
		position INTEGER
	);`,
	`CREATE TABLE IF NOT EXISTS driver_scores (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT,
		driver TEXT,
		r REAL,
		r_squared REAL,
		n INTEGER,
		status TEXT,
		position INTEGER
	);`,
}

// Open opens (or creates) the sqlite database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", path)
	}
	// single writer; runs are saved from the async runner
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "create schema")
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is a stored analysis run.
type Run struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Spec      model.AnalysisSpec `json:"spec"`
	Status    string             `json:"status"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// SaveRun stores a new pending run
func (s *Store) SaveRun(runID string, spec model.AnalysisSpec) error {
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return errors.Wrap(err, "encode spec")
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`INSERT INTO runs (id, name, spec, status, error, created_at, updated_at) VALUES (?, ?, ?, ?, '', ?, ?)`,
		runID, spec.Name, string(specJSON), "pending", now, now)
	return errors.Wrapf(err, "save run %s", runID)
}

// UpdateRunStatus updates run status
func (s *Store) UpdateRunStatus(runID, status string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`, status, now, runID)
	return errors.Wrapf(err, "update run %s", runID)
}

// SaveRunError marks a run failed and records why.
func (s *Store) SaveRunError(runID string, runErr error) error {
	if runErr == nil {
		return nil
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(`UPDATE runs SET status = 'failed', error = ?, updated_at = ? WHERE id = ?`,
		runErr.Error(), now, runID)
	return errors.Wrapf(err, "save error for run %s", runID)
}

// ListRuns returns all runs, newest first, without their specs.
func (s *Store) ListRuns() ([]Run, error) {
	rows, err := s.db.Query(`SELECT id, name, status, error, created_at, updated_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list runs")
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Name, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		runs = append(runs, r)
	}
	return runs, errors.Wrap(rows.Err(), "list runs")
}

// GetRun fetches a run with its spec.
func (s *Store) GetRun(runID string) (*Run, error) {
	var specJSON string
	r := Run{ID: runID}
	err := s.db.QueryRow(`SELECT name, spec, status, error, created_at, updated_at FROM runs WHERE id = ?`, runID).
		Scan(&r.Name, &specJSON, &r.Status, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get run %s", runID)
	}
	if err := json.Unmarshal([]byte(specJSON), &r.Spec); err != nil {
		return nil, errors.Wrapf(err, "decode spec of run %s", runID)
	}
	return &r, nil
}

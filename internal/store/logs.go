package store

import (
	"encoding/json"
	"go-forum-analytics/internal/model"
	"time"

	"github.com/pkg/errors"
)

// LogEntry is one persisted run log line.
type LogEntry struct {
	Stage     string                 `json:"stage"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// SaveLog records a log line for a run.
func (s *Store) SaveLog(runID, stage, level, message string, details map[string]interface{}) error {
	detailsJSON := "{}"
	if len(details) > 0 {
		b, err := json.Marshal(details)
		if err != nil {
			return errors.Wrap(err, "encode log details")
		}
		detailsJSON = string(b)
	}
	_, err := s.db.Exec(`INSERT INTO run_logs (run_id, stage, level, message, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stage, level, message, detailsJSON, time.Now().UTC())
	return errors.Wrapf(err, "save log for run %s", runID)
}

// GetLogs returns the log lines of a run in insertion order.
func (s *Store) GetLogs(runID string) ([]LogEntry, error) {
	rows, err := s.db.Query(`SELECT stage, level, message, details, created_at FROM run_logs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "get logs of run %s", runID)
	}
	defer rows.Close()

	logs := make([]LogEntry, 0)
	for rows.Next() {
		var (
			e           LogEntry
			detailsJSON string
		)
		if err := rows.Scan(&e.Stage, &e.Level, &e.Message, &detailsJSON, &e.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan log")
		}
		if detailsJSON != "" && detailsJSON != "{}" {
			if err := json.Unmarshal([]byte(detailsJSON), &e.Details); err != nil {
				return nil, errors.Wrap(err, "decode log details")
			}
		}
		logs = append(logs, e)
	}
	return logs, errors.Wrap(rows.Err(), "get logs")
}

// SaveWarning records a non-fatal data warning for a run.
func (s *Store) SaveWarning(runID string, w model.Warning) error {
	ts := w.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO run_warnings (run_id, kind, stage, subject, message, row_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, string(w.Kind), w.Stage, w.Subject, w.Message, w.Rows, ts.UTC())
	return errors.Wrapf(err, "save warning for run %s", runID)
}

// GetWarnings returns the warnings of a run in insertion order.
func (s *Store) GetWarnings(runID string) ([]model.Warning, error) {
	rows, err := s.db.Query(`SELECT kind, stage, subject, message, row_count, created_at FROM run_warnings WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "get warnings of run %s", runID)
	}
	defer rows.Close()

	warnings := make([]model.Warning, 0)
	for rows.Next() {
		var (
			w    model.Warning
			kind string
		)
		if err := rows.Scan(&kind, &w.Stage, &w.Subject, &w.Message, &w.Rows, &w.Timestamp); err != nil {
			return nil, errors.Wrap(err, "scan warning")
		}
		w.Kind = model.WarningKind(kind)
		warnings = append(warnings, w)
	}
	return warnings, errors.Wrap(rows.Err(), "get warnings")
}

package store

import (
	"database/sql"
	"go-forum-analytics/internal/model"

	"github.com/pkg/errors"
)

// StoredCorrelation is a persisted correlation result tagged with the analysis it came from.
type StoredCorrelation struct {
	Analysis string `json:"analysis"`
	model.CorrelationResult
}

// SaveCorrelations stores results for one analysis (e.g. "course", "nps")
// in the given order. Undefined r² is stored as NULL.
func (s *Store) SaveCorrelations(runID, analysis string, results []model.CorrelationResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	stmt, err := tx.Prepare(`INSERT INTO correlation_results (run_id, analysis, group_value, r, r_squared, n, status, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for i, res := range results {
		r, r2 := nullable(res.Correlation)
		if _, err := stmt.Exec(runID, analysis, res.Group, r, r2, res.N, res.Status.String(), i); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "save %s result %q", analysis, res.Group)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// GetCorrelations returns every stored correlation result of a run, grouped by
// analysis in the order they were saved.
func (s *Store) GetCorrelations(runID string) ([]StoredCorrelation, error) {
	rows, err := s.db.Query(`SELECT analysis, group_value, r, r_squared, n, status FROM correlation_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "get results of run %s", runID)
	}
	defer rows.Close()

	out := make([]StoredCorrelation, 0)
	for rows.Next() {
		var (
			sc     StoredCorrelation
			r, r2  sql.NullFloat64
			status string
		)
		if err := rows.Scan(&sc.Analysis, &sc.Group, &r, &r2, &sc.N, &status); err != nil {
			return nil, errors.Wrap(err, "scan result")
		}
		sc.R, sc.RSquared = r.Float64, r2.Float64
		sc.Status = model.ParseCorrelationStatus(status)
		out = append(out, sc)
	}
	return out, errors.Wrap(rows.Err(), "get results")
}

// SaveDriverScores stores the ranked drivers of a run.
func (s *Store) SaveDriverScores(runID string, scores []model.DriverScore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	stmt, err := tx.Prepare(`INSERT INTO driver_scores (run_id, driver, r, r_squared, n, status, position) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "prepare")
	}
	defer stmt.Close()

	for i, sc := range scores {
		r, r2 := nullable(sc.Correlation)
		if _, err := stmt.Exec(runID, sc.Driver, r, r2, sc.N, sc.Status.String(), i); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "save driver %q", sc.Driver)
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

// GetDriverScores returns the stored drivers of a run in ranking order.
func (s *Store) GetDriverScores(runID string) ([]model.DriverScore, error) {
	rows, err := s.db.Query(`SELECT driver, r, r_squared, n, status FROM driver_scores WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "get drivers of run %s", runID)
	}
	defer rows.Close()

	out := make([]model.DriverScore, 0)
	for rows.Next() {
		var (
			ds     model.DriverScore
			r, r2  sql.NullFloat64
			status string
		)
		if err := rows.Scan(&ds.Driver, &r, &r2, &ds.N, &status); err != nil {
			return nil, errors.Wrap(err, "scan driver")
		}
		ds.R, ds.RSquared = r.Float64, r2.Float64
		ds.Status = model.ParseCorrelationStatus(status)
		out = append(out, ds)
	}
	return out, errors.Wrap(rows.Err(), "get drivers")
}

func nullable(c model.Correlation) (interface{}, interface{}) {
	if !c.Defined() {
		return nil, nil
	}
	return c.R, c.RSquared
}

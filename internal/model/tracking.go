package model

import "time"

// WarningKind classifies non-fatal data conditions raised during a run.
type WarningKind string

const (
	// DegenerateGroupWarning: a partition had too few rows or no variance to correlate.
	DegenerateGroupWarning WarningKind = "degenerate_group"
	// JoinMismatchWarning: rows were dropped by an inner join for lack of a counterpart.
	JoinMismatchWarning WarningKind = "join_mismatch"
	// InvalidValueWarning: non-numeric text found in a numeric column.
	InvalidValueWarning WarningKind = "invalid_value"
)

// Warning is a non-fatal condition; it never aborts a run.
type Warning struct {
	Kind      WarningKind `json:"kind"`
	Stage     string      `json:"stage"`
	Subject   string      `json:"subject"`
	Message   string      `json:"message"`
	Rows      int         `json:"rows"`
	Timestamp time.Time   `json:"timestamp"`
}

// StageMetrics represents metrics for a specific pipeline stage
type StageMetrics struct {
	StageName string        `json:"stage_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	RowsIn    int           `json:"rows_in"`
	RowsOut   int           `json:"rows_out"`
	Status    string        `json:"status"` // running, completed, skipped, failed
}

// AnalysisReport is everything a run produces.
type AnalysisReport struct {
	RunID         string               `json:"run_id"`
	Name          string               `json:"name"`
	StartedAt     time.Time            `json:"started_at"`
	FinishedAt    time.Time            `json:"finished_at"`
	StudentRows   int                  `json:"student_rows"`
	Subsets       []SubsetCorrelation  `json:"subsets"`
	Groupings     []GroupedCorrelation `json:"groupings"`
	Drivers       []DriverScore        `json:"drivers,omitempty"`
	DriverTable   *Table               `json:"driver_table,omitempty"`
	NPS           []CorrelationResult  `json:"nps,omitempty"`
	Modules       []CorrelationResult  `json:"modules,omitempty"`
	ModuleSummary *Table               `json:"module_summary,omitempty"`
	Warnings      []Warning            `json:"warnings"`
	Stages        []StageMetrics       `json:"stages"`
	Exports       []ExportResult       `json:"exports,omitempty"`
}

// Grouping returns the grouped results for a key, if that grouping ran.
func (r *AnalysisReport) Grouping(groupBy string) (GroupedCorrelation, bool) {
	for _, g := range r.Groupings {
		if g.GroupBy == groupBy {
			return g, true
		}
	}
	return GroupedCorrelation{}, false
}

// ExportResult represents the result of an export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "json", "database"
	Path        string    `json:"path"` // file path or table name
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

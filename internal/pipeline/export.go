package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"go-forum-analytics/internal/model"
	"go-forum-analytics/internal/store"
	"go-forum-analytics/pkg/utils"
	"io"
	"os"
	"strings"
	"time"
)

// Exporter writes the result tables of a run to files and, optionally, the run store.
type Exporter struct {
	RunID  string
	Spec   model.Export
	Output *utils.OutputManager
	Store  *store.Store
}

// NewExporter builds an exporter for one run. A nil spec exports CSV files
// under the default directory.
func NewExporter(runID string, spec *model.Export, st *store.Store) *Exporter {
	e := &Exporter{RunID: runID, Store: st}
	if spec != nil {
		e.Spec = *spec
	}
	if e.Spec.Format == "" {
		e.Spec.Format = "csv"
	}
	e.Output = utils.NewOutputManager(e.Spec.Dir)
	return e
}

// Export writes every result table of report, then the store rows when enabled.
// Failures are reported per target and never abort the others.
func (e *Exporter) Export(ctx context.Context, report *model.AnalysisReport) []model.ExportResult {
	tables := ReportTables(report)
	fmt.Printf("💾 Export: Starting export of %d tables for run %s\n", len(tables), e.RunID)

	results := make([]model.ExportResult, 0, len(tables)+1)
	for _, t := range tables {
		if ctx.Err() != nil {
			results = append(results, failed(e.Spec.Format, t.Name, ctx.Err()))
			continue
		}
		results = append(results, e.exportToFile(t))
	}

	if e.Spec.DB {
		results = append(results, e.exportToDatabase(report))
	}

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
		}
	}
	fmt.Printf("💾 Export Summary: %d/%d export operations succeeded\n", ok, len(results))
	return results
}

// ReportTables flattens a report into the tables that get exported, in a fixed order.
func ReportTables(report *model.AnalysisReport) []*model.Table {
	tables := []*model.Table{SubsetsTable(report.Subsets)}
	for _, g := range report.Groupings {
		tables = append(tables, ResultsTable("r2_by_"+g.GroupBy, g.GroupBy, g.Results))
	}
	if len(report.Drivers) > 0 {
		tables = append(tables, DriversTable(report.Drivers))
	}
	if report.DriverTable != nil {
		tables = append(tables, report.DriverTable)
	}
	if len(report.NPS) > 0 {
		tables = append(tables, ResultsTable("nps_r2_by_course", model.ColCourse, report.NPS))
	}
	if len(report.Modules) > 0 {
		tables = append(tables, ResultsTable("r2_by_module", model.ColCourseModule, report.Modules))
	}
	if report.ModuleSummary != nil {
		tables = append(tables, report.ModuleSummary)
	}
	return tables
}

// SubsetsTable turns the whole-table subset results into a (subset, r_squared, n) table.
func SubsetsTable(subsets []model.SubsetCorrelation) *model.Table {
	t := model.NewTable("subsets", "subset", model.ColRSquared, "n")
	for _, s := range subsets {
		rec := model.GenericRecord{"subset": s.Label, "n": s.N, model.ColRSquared: nil}
		if s.Defined() {
			rec[model.ColRSquared] = s.RSquared
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

// exportToFile writes one table as <name>.<format> in the run directory.
func (e *Exporter) exportToFile(t *model.Table) model.ExportResult {
	format := strings.ToLower(e.Spec.Format)
	path, err := e.Output.FilePath(e.RunID, t.Name+"."+format)
	if err != nil {
		return failed(format, t.Name, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return failed(format, path, fmt.Errorf("failed to create file: %w", err))
	}

	err = writeAndClose(file, func(w io.Writer) error {
		switch format {
		case "json":
			return WriteJSON(w, e.RunID, t)
		case "csv":
			return WriteCSV(w, t)
		default:
			return fmt.Errorf("unknown export format: %s", format)
		}
	})
	if err != nil {
		fmt.Printf("❌ Export to file failed: %v\n", err)
		return failed(format, path, err)
	}

	fmt.Printf("✅ Export to file successful: %d records exported to %s\n", t.Len(), path)
	return model.ExportResult{
		Type:        format,
		Path:        path,
		RecordCount: t.Len(),
		Success:     true,
		Timestamp:   time.Now(),
	}
}

// writeAndClose runs write against wc and always closes it.
// A failed close is reported when the write itself succeeded.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	err := write(wc)
	if cerr := wc.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close file: %w", cerr)
	}
	return err
}

// WriteCSV writes t as delimited text with a header row, in column order.
// Missing values are written as empty cells.
func WriteCSV(w io.Writer, t *model.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(t.Columns))
	for _, rec := range t.Rows {
		for i, col := range t.Columns {
			row[i] = rec.Text(col)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes t with a small metadata header.
func WriteJSON(w io.Writer, runID string, t *model.Table) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	rows := t.Rows
	if rows == nil {
		rows = []model.GenericRecord{}
	}
	exportData := map[string]interface{}{
		"export_info": map[string]interface{}{
			"run_id":       runID,
			"table":        t.Name,
			"exported_at":  time.Now().UTC(),
			"record_count": t.Len(),
		},
		"columns": t.Columns,
		"data":    rows,
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// exportToDatabase persists the correlation results and driver scores of a run.
func (e *Exporter) exportToDatabase(report *model.AnalysisReport) model.ExportResult {
	if e.Store == nil {
		return failed("database", "", fmt.Errorf("no run store configured"))
	}

	count := 0
	save := func(analysis string, results []model.CorrelationResult) error {
		if len(results) == 0 {
			return nil
		}
		if err := e.Store.SaveCorrelations(e.RunID, analysis, results); err != nil {
			return err
		}
		count += len(results)
		return nil
	}

	subsets := make([]model.CorrelationResult, len(report.Subsets))
	for i, s := range report.Subsets {
		subsets[i] = model.CorrelationResult{Group: s.Label, Correlation: s.Correlation}
	}

	err := save("subset", subsets)
	for _, g := range report.Groupings {
		if err == nil {
			err = save(g.GroupBy, g.Results)
		}
	}
	if err == nil {
		err = save("nps", report.NPS)
	}
	if err == nil {
		err = save("module", report.Modules)
	}
	if err == nil && len(report.Drivers) > 0 {
		if err = e.Store.SaveDriverScores(e.RunID, report.Drivers); err == nil {
			count += len(report.Drivers)
		}
	}

	if err != nil {
		fmt.Printf("❌ Export to database failed: %v\n", err)
		res := failed("database", "correlation_results", err)
		res.RecordCount = count
		return res
	}
	fmt.Printf("✅ Export to database successful: %d records exported\n", count)
	return model.ExportResult{
		Type:        "database",
		Path:        "correlation_results",
		RecordCount: count,
		Success:     true,
		Timestamp:   time.Now(),
	}
}

func failed(kind, path string, err error) model.ExportResult {
	return model.ExportResult{
		Type:      kind,
		Path:      path,
		Success:   false,
		Error:     err.Error(),
		Timestamp: time.Now(),
	}
}

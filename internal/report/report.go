// Package report renders analysis results as console tables.
package report

import (
	"fmt"
	"go-forum-analytics/internal/model"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	title = color.New(color.FgCyan, color.Bold)
	head  = color.New(color.FgYellow)
	warn  = color.New(color.FgRed)
)

// FormatRSquared prints r² to four decimals, or n/a when it is undefined.
func FormatRSquared(c model.Correlation) string {
	if !c.Defined() {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", c.RSquared)
}

// Render writes the whole report to w.
func Render(w io.Writer, r *model.AnalysisReport) {
	title.Fprintf(w, "\n=== %s (run %s) ===\n", r.Name, r.RunID)
	fmt.Fprintf(w, "Number of total students: %d\n", r.StudentRows)

	Subsets(w, r.Subsets)
	for _, g := range r.Groupings {
		Results(w, "r² by "+g.GroupBy, g.GroupBy, g.Results)
	}
	if len(r.Drivers) > 0 {
		Drivers(w, r.Drivers)
	}
	if len(r.NPS) > 0 {
		Results(w, "NPS r² by course", model.ColCourse, r.NPS)
	}
	if len(r.Modules) > 0 {
		Results(w, "r² by course module", model.ColCourseModule, r.Modules)
	}
	if r.ModuleSummary != nil {
		Table(w, "Module summary", r.ModuleSummary)
	}
	Warnings(w, r.Warnings)
	Exports(w, r.Exports)
}

// Subsets prints the whole-table correlations.
func Subsets(w io.Writer, subsets []model.SubsetCorrelation) {
	head.Fprintln(w, "\nFinal mark vs number of posts")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Subset", "N", "R²"})
	for _, s := range subsets {
		table.Append([]string{s.Label, fmt.Sprint(s.N), FormatRSquared(s.Correlation)})
	}
	table.Render()
}

// Results prints a ranked list of partition results.
func Results(w io.Writer, heading, groupCol string, results []model.CorrelationResult) {
	head.Fprintln(w, "\n"+heading)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", groupCol, "N", "R²"})
	rank := 0
	for _, res := range results {
		pos := "-"
		if res.Defined() {
			rank++
			pos = fmt.Sprint(rank)
		}
		table.Append([]string{pos, res.Group, fmt.Sprint(res.N), FormatRSquared(res.Correlation)})
	}
	table.Render()
}

// Drivers prints the driver ranking.
func Drivers(w io.Writer, scores []model.DriverScore) {
	head.Fprintln(w, "\nDrivers of the performance measure")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rank", "Driver", "R²"})
	rank := 0
	for _, s := range scores {
		pos := "-"
		if s.Defined() {
			rank++
			pos = fmt.Sprint(rank)
		}
		table.Append([]string{pos, s.Driver, FormatRSquared(s.Correlation)})
	}
	table.Render()
}

// Table prints any table in column order.
func Table(w io.Writer, heading string, t *model.Table) {
	head.Fprintln(w, "\n"+heading)
	table := tablewriter.NewWriter(w)
	table.SetHeader(t.Columns)
	for _, rec := range t.Rows {
		row := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			row[i] = rec.Text(col)
		}
		table.Append(row)
	}
	table.Render()
}

// Warnings prints the non-fatal conditions of a run.
func Warnings(w io.Writer, warnings []model.Warning) {
	if len(warnings) == 0 {
		return
	}
	warn.Fprintf(w, "\n%d warnings\n", len(warnings))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Stage", "Kind", "Subject", "Message"})
	for _, wr := range warnings {
		table.Append([]string{wr.Stage, string(wr.Kind), wr.Subject, wr.Message})
	}
	table.Render()
}

// Exports prints where the results were written.
func Exports(w io.Writer, exports []model.ExportResult) {
	if len(exports) == 0 {
		return
	}
	head.Fprintln(w, "\nExports")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Type", "Path", "Records", "Status"})
	for _, e := range exports {
		status := "ok"
		if !e.Success {
			status = e.Error
		}
		table.Append([]string{e.Type, e.Path, fmt.Sprint(e.RecordCount), status})
	}
	table.Render()
}

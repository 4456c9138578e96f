package pipeline

import (
	"context"
	"errors"
	"fmt"
	"go-forum-analytics/internal/model"
	"go-forum-analytics/internal/store"
	"strings"
	"time"
)

// ErrMissingColumn means an input table lacks a column the analysis needs.
var ErrMissingColumn = errors.New("missing column")

// Deps are the collaborators of a run. Both may be nil: without a fetcher only
// csv/json sources load, without a store nothing is persisted.
type Deps struct {
	Fetcher Fetcher
	Store   *store.Store
}

// inputs holds the loaded source tables; optional ones may be nil.
type inputs struct {
	students, drivers, nps, modules *model.Table
}

// ------------------- Pipeline Runner -------------------

// Run executes one analysis synchronously. A DataFetchError or a missing
// required column aborts it; degenerate groups and join mismatches only warn.
func Run(ctx context.Context, deps Deps, runID string, spec model.AnalysisSpec) (report *model.AnalysisReport, err error) {
	spec = spec.WithDefaults()
	tracker := NewTracker(runID, deps.Store)

	start := time.Now()
	fmt.Printf("🚀 Starting analysis %q for run: %s\n", spec.Name, runID)
	tracker.SetStatus("running")

	defer func() {
		if err != nil {
			if deps.Store != nil {
				if serr := deps.Store.SaveRunError(runID, err); serr != nil {
					fmt.Printf("⚠️ Failed to record error for run %s: %v\n", runID, serr)
				}
			}
			fmt.Printf("❌ Analysis failed for run %s after %v: %v\n", runID, time.Since(start), err)
		}
	}()

	report = &model.AnalysisReport{RunID: runID, Name: spec.Name, StartedAt: start}

	in, err := loadInputs(ctx, deps.Fetcher, spec.Sources, tracker)
	if err != nil {
		return nil, err
	}

	students, err := cleanStudents(in.students, spec.GradeCeiling, tracker)
	if err != nil {
		return nil, err
	}
	report.StudentRows = students.Len()

	report.Subsets = subsetCorrelations(students, spec, tracker)
	report.Groupings = groupedCorrelations(students, spec.GroupBy, tracker)

	if in.drivers != nil {
		if err := driverAnalysis(report, students, in.drivers, spec.DegeneratePolicy, tracker); err != nil {
			return nil, err
		}
	} else {
		tracker.SkipStage("drivers", "no drivers source")
	}

	if in.nps != nil {
		if err := npsAnalysis(report, in.nps, tracker); err != nil {
			return nil, err
		}
	} else {
		tracker.SkipStage("nps", "no nps source")
	}

	if in.modules != nil {
		if err := moduleAnalysis(report, in.modules, spec.GradeCeiling, tracker); err != nil {
			return nil, err
		}
	} else {
		tracker.SkipStage("modules", "no modules source")
	}

	if spec.Export != nil {
		tracker.StartStage("export", 0)
		report.Exports = NewExporter(runID, spec.Export, deps.Store).Export(ctx, report)
		tracker.EndStage("export", len(report.Exports))
	} else {
		tracker.SkipStage("export", "no export configured")
	}

	report.FinishedAt = time.Now()
	report.Stages = tracker.Stages()
	report.Warnings = tracker.Warnings()

	fmt.Printf("🏁 Analysis completed for run: %s in %v (%d warnings)\n", runID, report.FinishedAt.Sub(start), len(report.Warnings))
	tracker.SetStatus("completed")
	return report, nil
}

func loadInputs(ctx context.Context, fetcher Fetcher, sources model.Sources, tracker *Tracker) (inputs, error) {
	var in inputs
	if sources.Students == nil {
		return in, fmt.Errorf("students source is required")
	}

	tracker.StartStage("ingestion", 0)
	named := []struct {
		name string
		src  *model.Source
		dst  **model.Table
	}{
		{"students", sources.Students, &in.students},
		{"drivers", sources.Drivers, &in.drivers},
		{"nps", sources.NPS, &in.nps},
		{"modules", sources.Modules, &in.modules},
	}

	rows := 0
	for _, n := range named {
		if n.src == nil {
			continue
		}
		t, err := Load(ctx, n.name, *n.src, fetcher)
		if err != nil {
			tracker.FailStage("ingestion", err)
			return in, err
		}
		*n.dst = t
		rows += t.Len()
	}
	tracker.EndStage("ingestion", rows)
	return in, nil
}

// cleanStudents fills missing marks and post counts with zero and caps marks at the ceiling.
func cleanStudents(students *model.Table, ceiling float64, tracker *Tracker) (*model.Table, error) {
	tracker.StartStage("cleaning", students.Len())
	students, err := validateStage("cleaning", students, ValidationRules{
		RequiredColumns: []string{model.ColCourse, model.ColFinalMark, model.ColPosts},
		NumericColumns:  []string{model.ColFinalMark, model.ColPosts},
	}, tracker)
	if err != nil {
		return nil, err
	}

	var c Cleaner
	out := c.FillNA(students, 0, model.ColFinalMark, model.ColPosts)
	out = c.Clamp(out, model.ColFinalMark, ceiling)

	tracker.Log("cleaning", "info", "students cleaned", map[string]interface{}{
		"filled":  c.Stats.Filled,
		"clamped": c.Stats.Clamped,
	})
	tracker.EndStage("cleaning", out.Len())
	return out, nil
}

// subsetCorrelations correlates marks and posts over the whole table and over
// the engagement and tribe subsets.
func subsetCorrelations(students *model.Table, spec model.AnalysisSpec, tracker *Tracker) []model.SubsetCorrelation {
	tracker.StartStage("subsets", students.Len())

	type subset struct {
		label string
		rows  *model.Table
	}
	subsets := []subset{{"all students", students}}
	for _, th := range spec.PostThresholds {
		subsets = append(subsets, subset{fmt.Sprintf("posts > %g", th), Filter(students, GreaterThan(model.ColPosts, th))})
	}
	if students.HasColumn(model.ColTribe) {
		subsets = append(subsets, subset{
			"tribes " + strings.Join(spec.TribeSubset, ", "),
			Filter(students, In(model.ColTribe, spec.TribeSubset...)),
		})
	} else {
		tracker.Log("subsets", "info", "no "+model.ColTribe+" column; tribe subset skipped", nil)
	}

	out := make([]model.SubsetCorrelation, 0, len(subsets))
	for _, s := range subsets {
		c := Correlate(s.rows, model.ColFinalMark, model.ColPosts)
		out = append(out, model.SubsetCorrelation{Label: s.label, Correlation: c})
		if !c.Defined() {
			tracker.Warn(model.Warning{
				Kind:    model.DegenerateGroupWarning,
				Stage:   "subsets",
				Subject: s.label,
				Message: fmt.Sprintf("r² undefined (%s, %d rows)", c.Status, c.N),
				Rows:    c.N,
			})
		}
	}
	tracker.EndStage("subsets", len(out))
	return out
}

// groupedCorrelations ranks the partitions of every group key by r².
func groupedCorrelations(students *model.Table, groupBy []string, tracker *Tracker) []model.GroupedCorrelation {
	tracker.StartStage("grouping", students.Len())
	out := make([]model.GroupedCorrelation, 0, len(groupBy))
	for _, key := range groupBy {
		if !students.HasColumn(key) {
			tracker.Log("grouping", "warning", "no "+key+" column; grouping skipped", nil)
			continue
		}
		results := GroupedCorrelation(students, key, model.ColFinalMark, model.ColPosts)
		tracker.WarnDegenerate("grouping", key, results)
		out = append(out, model.GroupedCorrelation{
			GroupBy: key,
			X:       model.ColFinalMark,
			Y:       model.ColPosts,
			Results: results,
		})
	}
	tracker.EndStage("grouping", len(out))
	return out
}

// driverAnalysis builds the driver table from the per-course r² and ranks the drivers.
func driverAnalysis(report *model.AnalysisReport, students, extract *model.Table, policy string, tracker *Tracker) error {
	tracker.StartStage("drivers", extract.Len())
	extract, err := validateStage("drivers", extract, ValidationRules{
		RequiredColumns: []string{model.ColCourse},
		NumericColumns:  driverInputColumns(),
	}, tracker)
	if err != nil {
		return err
	}

	courses, ok := report.Grouping(model.ColCourse)
	if !ok {
		courses = model.GroupedCorrelation{
			GroupBy: model.ColCourse,
			Results: GroupedCorrelation(students, model.ColCourse, model.ColFinalMark, model.ColPosts),
		}
	}

	// student counts and tribe mix can be derived when the extract lacks them
	if !extract.HasColumn(model.ColStudents) && students.HasColumn(model.ColUserID) {
		var stats JoinStats
		extract, stats = InnerJoin(extract, CourseAggregates(students), model.ColCourse)
		tracker.WarnJoin("drivers", "driver extract + student aggregates", stats)
	}

	var c Cleaner
	extract = c.DropNA(extract)
	if c.Stats.Dropped > 0 {
		tracker.Log("drivers", "info", fmt.Sprintf("dropped %d driver rows with missing values", c.Stats.Dropped), nil)
	}
	extract = DeriveRatios(extract, TribeProportions(model.ColStudents, model.Tribes...)...)
	extract = DeriveRatios(extract, EngagementRatios()...)

	table, stats, excluded := BuildDriverTable(courses.Results, extract, policy)
	tracker.WarnJoin("drivers", "course r² + driver extract", stats)
	if len(excluded) > 0 {
		tracker.Log("drivers", "info", fmt.Sprintf("%d courses without a defined r² left out of the performance measure", len(excluded)), nil)
	}

	scores := RankDrivers(table, model.ColPerformanceMeasure, DriverColumns()...)
	for _, s := range scores {
		if !s.Defined() {
			tracker.Warn(model.Warning{
				Kind:    model.DegenerateGroupWarning,
				Stage:   "drivers",
				Subject: "driver=" + s.Driver,
				Message: fmt.Sprintf("r² undefined (%s, %d rows)", s.Status, s.N),
				Rows:    s.N,
			})
		}
	}

	report.DriverTable = table
	report.Drivers = scores
	tracker.EndStage("drivers", table.Len())
	return nil
}

// driverInputColumns are the numeric columns of the driver extract.
func driverInputColumns() []string {
	cols := []string{
		model.ColStudents,
		model.ColStakeholders,
		model.ColStakeholderPosts,
		model.ColStakeholderLikes,
		model.ColStudentPosts,
		model.ColStudentLikes,
		model.ColCoursePrice,
		model.ColCourseGrade,
	}
	for _, tribe := range model.Tribes {
		cols = append(cols, "number_of_"+strings.ToLower(tribe))
	}
	return cols
}

// npsAnalysis ranks courses by the r² of final mark against NPS score.
func npsAnalysis(report *model.AnalysisReport, nps *model.Table, tracker *Tracker) error {
	tracker.StartStage("nps", nps.Len())
	nps, err := validateStage("nps", nps, ValidationRules{
		RequiredColumns: []string{model.ColCourse, model.ColFinalMark, model.ColNPS},
		NumericColumns:  []string{model.ColFinalMark, model.ColNPS},
	}, tracker)
	if err != nil {
		return err
	}

	clean := DropNA(nps, model.ColCourse, model.ColFinalMark, model.ColNPS)
	results := GroupedCorrelation(clean, model.ColCourse, model.ColFinalMark, model.ColNPS)
	tracker.WarnDegenerate("nps", model.ColCourse, results)

	report.NPS = results
	tracker.EndStage("nps", len(results))
	return nil
}

// moduleAnalysis ranks course modules by r² and joins the ranking onto the
// per-module base table.
func moduleAnalysis(report *model.AnalysisReport, modules *model.Table, ceiling float64, tracker *Tracker) error {
	tracker.StartStage("modules", modules.Len())
	modules, err := validateStage("modules", modules, ValidationRules{
		RequiredColumns: []string{model.ColPresentation, model.ColModuleName, model.ColModuleGrade, model.ColPosts},
		NumericColumns:  []string{model.ColModuleGrade, model.ColPosts},
	}, tracker)
	if err != nil {
		return err
	}

	t := Concat(modules, model.ColCourseModule, " ", model.ColPresentation, model.ColModuleName)
	t = FillNA(t, 0, model.ColModuleGrade, model.ColPosts)
	t = Clamp(t, model.ColModuleGrade, ceiling)

	results := GroupedCorrelation(t, model.ColCourseModule, model.ColModuleGrade, model.ColPosts)
	tracker.WarnDegenerate("modules", model.ColCourseModule, results)

	base := ModuleBase(t)
	summary, stats := InnerJoin(base, ResultsTable("r2_by_module", model.ColCourseModule, Ranked(results)), model.ColCourseModule)
	summary.Name = "module_summary"
	tracker.WarnJoin("modules", "module base + module r²", stats)

	report.Modules = results
	report.ModuleSummary = summary
	tracker.EndStage("modules", summary.Len())
	return nil
}

package pipeline

import (
	"go-forum-analytics/internal/model"
	"go-forum-analytics/pkg/utils"
	"sort"
	"strings"
)

// DriverColumns lists the candidate drivers of the performance measure, in
// the order they appear in the driver table.
func DriverColumns() []string {
	cols := []string{
		model.ColCoursePrice,
		model.ColCourseGrade,
		"posts_per_stakeholder",
		"likes_per_stakeholder",
		"posts_per_student",
		"likes_per_student",
	}
	for _, tribe := range model.Tribes {
		cols = append(cols, "proportion_"+strings.ToLower(tribe))
	}
	return cols
}

// NumericColumns returns the columns of t holding at least one numeric value
// and no non-numeric ones, skipping exclude.
func NumericColumns(t *model.Table, exclude ...string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		skip[e] = true
	}
	var cols []string
	for _, col := range t.Columns {
		if skip[col] {
			continue
		}
		numeric, seen := true, false
		for _, rec := range t.Rows {
			v := rec[col]
			if utils.IsMissing(v) {
				continue
			}
			if _, ok := utils.ToFloat(v); !ok {
				numeric = false
				break
			}
			seen = true
		}
		if numeric && seen {
			cols = append(cols, col)
		}
	}
	return cols
}

// RankDrivers correlates measure against each driver column and ranks the
// drivers by r² descending. Only the measure's own row of the correlation
// matrix is computed. With no drivers given, every other numeric column is a
// candidate. Degenerate drivers follow the ranked ones.
func RankDrivers(t *model.Table, measure string, drivers ...string) []model.DriverScore {
	if len(drivers) == 0 {
		drivers = NumericColumns(t, measure)
	}

	defined := make([]model.DriverScore, 0, len(drivers))
	var degenerate []model.DriverScore
	for _, d := range drivers {
		if d == measure {
			continue
		}
		score := model.DriverScore{Driver: d, Correlation: Correlate(t, measure, d)}
		if score.Defined() {
			defined = append(defined, score)
		} else {
			degenerate = append(degenerate, score)
		}
	}

	sort.SliceStable(defined, func(i, j int) bool {
		return defined[i].RSquared > defined[j].RSquared
	})
	return append(defined, degenerate...)
}

// RankedDrivers keeps only drivers with a defined r².
func RankedDrivers(scores []model.DriverScore) []model.DriverScore {
	out := make([]model.DriverScore, 0, len(scores))
	for _, s := range scores {
		if s.Defined() {
			out = append(out, s)
		}
	}
	return out
}

// DriversTable turns driver scores into a (drivers, r_squared) table.
func DriversTable(scores []model.DriverScore) *model.Table {
	t := model.NewTable("drivers", model.ColDrivers, model.ColRSquared, "n")
	for _, s := range scores {
		rec := model.GenericRecord{model.ColDrivers: s.Driver, "n": s.N, model.ColRSquared: nil}
		if s.Defined() {
			rec[model.ColRSquared] = s.RSquared
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

// PerformanceMeasure turns per-course results into a (course, performance_measure)
// table. Under PolicyZero degenerate courses get a measure of 0; otherwise they
// are left out and returned separately.
func PerformanceMeasure(courses []model.CorrelationResult, policy string) (*model.Table, []model.CorrelationResult) {
	t := model.NewTable("performance_measure", model.ColCourse, model.ColPerformanceMeasure)
	var excluded []model.CorrelationResult
	for _, c := range courses {
		switch {
		case c.Defined():
			t.Rows = append(t.Rows, model.GenericRecord{model.ColCourse: c.Group, model.ColPerformanceMeasure: c.RSquared})
		case policy == model.PolicyZero:
			t.Rows = append(t.Rows, model.GenericRecord{model.ColCourse: c.Group, model.ColPerformanceMeasure: 0.0})
		default:
			excluded = append(excluded, c)
		}
	}
	return t, excluded
}

// BuildDriverTable joins the performance measure onto the driver extract by
// course and null-fills every candidate driver with zero.
func BuildDriverTable(courses []model.CorrelationResult, extract *model.Table, policy string) (*model.Table, JoinStats, []model.CorrelationResult) {
	measure, excluded := PerformanceMeasure(courses, policy)
	joined, stats := InnerJoin(measure, extract, model.ColCourse)

	cols := append([]string{model.ColCourse, model.ColPerformanceMeasure}, DriverColumns()...)
	for _, c := range []string{model.ColCourseType, model.ColSubjectVertical} {
		if joined.HasColumn(c) {
			cols = append(cols, c)
		}
	}
	driverTable := FillNA(joined.Select(cols...), 0.0, DriverColumns()...)
	driverTable.Name = "driver_table"
	return driverTable, stats, excluded
}

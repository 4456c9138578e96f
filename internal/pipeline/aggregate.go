package pipeline

import (
	"go-forum-analytics/internal/model"
	"go-forum-analytics/pkg/utils"
	"math"
	"strings"
)

// AggSpec describes one aggregated output column.
type AggSpec struct {
	Op     string // count, count_distinct, count_if, sum, avg, min, max, first
	Column string // input column (unused by count)
	Equals string // value matched by count_if
	As     string // output column name
}

// Name returns the output column name, defaulting to <op>_<column>.
func (s AggSpec) Name() string {
	if s.As != "" {
		return s.As
	}
	if s.Column == "" {
		return strings.ToLower(s.Op)
	}
	return strings.ToLower(s.Op) + "_" + s.Column
}

type aggState struct {
	count    int
	sum      float64
	numeric  int
	min, max float64
	distinct map[string]bool
	first    interface{}
	hasFirst bool
}

// Aggregate groups t by groupBy and computes specs per group, producing one
// row per group in first-appearance order. Averages are rounded to two decimals.
func Aggregate(t *model.Table, groupBy string, specs ...AggSpec) *model.Table {
	cols := []string{groupBy}
	for _, s := range specs {
		cols = append(cols, s.Name())
	}
	out := model.NewTable(t.Name+"_by_"+groupBy, cols...)

	order, parts := Partition(t, groupBy)
	for _, key := range order {
		part := parts[key]
		row := model.GenericRecord{groupBy: part.Rows[0][groupBy]}
		for _, s := range specs {
			row[s.Name()] = aggregateColumn(part, s)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func aggregateColumn(part *model.Table, s AggSpec) interface{} {
	st := aggState{distinct: make(map[string]bool), min: math.Inf(1), max: math.Inf(-1)}
	for _, rec := range part.Rows {
		v := rec[s.Column]
		switch strings.ToLower(s.Op) {
		case "count":
			st.count++
		case "count_distinct":
			if txt := rec.Text(s.Column); txt != "" {
				st.distinct[txt] = true
			}
		case "count_if":
			if rec.Text(s.Column) == s.Equals {
				st.count++
			}
		case "first":
			if !st.hasFirst && !utils.IsMissing(v) {
				st.first, st.hasFirst = v, true
			}
		default:
			if f, ok := utils.ToFloat(v); ok {
				st.sum += f
				st.numeric++
				st.min = math.Min(st.min, f)
				st.max = math.Max(st.max, f)
			}
		}
	}

	switch strings.ToLower(s.Op) {
	case "count", "count_if":
		return st.count
	case "count_distinct":
		return len(st.distinct)
	case "first":
		return st.first
	case "sum":
		if st.numeric == 0 {
			return nil
		}
		return st.sum
	case "avg", "average":
		if st.numeric == 0 {
			return nil
		}
		return math.Round(st.sum/float64(st.numeric)*100) / 100
	case "min":
		if st.numeric == 0 {
			return nil
		}
		return st.min
	case "max":
		if st.numeric == 0 {
			return nil
		}
		return st.max
	default:
		return nil
	}
}

// ModuleBase builds the per-module base table: average module grade, total
// posts and distinct students.
func ModuleBase(modules *model.Table) *model.Table {
	return Aggregate(modules, model.ColCourseModule,
		AggSpec{Op: "avg", Column: model.ColModuleGrade, As: model.ColAverageGrade},
		AggSpec{Op: "sum", Column: model.ColPosts, As: model.ColPosts},
		AggSpec{Op: "count_distinct", Column: model.ColUserID, As: model.ColStudents},
	)
}

// CourseAggregates builds per-course student counts, tribe counts and average
// grade from student-level rows, matching the warehouse driver extract.
func CourseAggregates(students *model.Table) *model.Table {
	specs := []AggSpec{
		{Op: "count_distinct", Column: model.ColUserID, As: model.ColStudents},
	}
	for _, tribe := range model.Tribes {
		specs = append(specs, AggSpec{Op: "count_if", Column: model.ColTribe, Equals: tribe, As: "number_of_" + strings.ToLower(tribe)})
	}
	specs = append(specs,
		AggSpec{Op: "avg", Column: model.ColFinalMark, As: model.ColCourseGrade},
		AggSpec{Op: "sum", Column: model.ColPosts, As: model.ColStudentPosts},
	)
	return Aggregate(students, model.ColCourse, specs...)
}

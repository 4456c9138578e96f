package pipeline

import (
	"go-forum-analytics/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defined(group string, r2 float64, n int) model.CorrelationResult {
	return model.CorrelationResult{Group: group, Correlation: model.Correlation{R: r2, RSquared: r2, N: n, Status: model.StatusDefined}}
}

func TestNumericColumns(t *testing.T) {
	tbl := newTable("t", []string{"course", "price", "grade", "empty", "mixed"},
		[]interface{}{"A", 100, 60.5, nil, 1},
		[]interface{}{"B", "200", nil, nil, "x"},
	)

	assert.Equal(t, []string{"price", "grade"}, NumericColumns(tbl))
	assert.Equal(t, []string{"grade"}, NumericColumns(tbl, "price"))
}

func TestRankDrivers(t *testing.T) {
	tbl := newTable("driver_table", []string{"performance_measure", "strong", "weak", "flat", "perfect_twin"},
		[]interface{}{0.1, 1, 5, 7, 1},
		[]interface{}{0.2, 2, 3, 7, 2},
		[]interface{}{0.3, 3, 6, 7, 3},
		[]interface{}{0.4, 4, 4, 7, 4},
	)

	scores := RankDrivers(tbl, "performance_measure", "flat", "weak", "strong", "perfect_twin", "performance_measure")
	drivers := make([]string, len(scores))
	for i, s := range scores {
		drivers[i] = s.Driver
	}

	// strong and perfect_twin tie at 1; strong was listed first
	assert.Equal(t, []string{"strong", "perfect_twin", "weak", "flat"}, drivers)
	assert.Equal(t, model.StatusZeroVariance, scores[3].Status)
	assert.InDelta(t, 1.0, scores[0].RSquared, 1e-9)

	ranked := RankedDrivers(scores)
	assert.Len(t, ranked, 3)
	for _, s := range ranked {
		assert.GreaterOrEqual(t, s.RSquared, 0.0)
		assert.LessOrEqual(t, s.RSquared, 1.0)
	}
}

func TestRankDriversDefaultsToNumericColumns(t *testing.T) {
	tbl := newTable("driver_table", []string{"course", "performance_measure", "x"},
		[]interface{}{"A", 0.1, 1},
		[]interface{}{"B", 0.2, 3},
		[]interface{}{"C", 0.3, 2},
	)

	scores := RankDrivers(tbl, "performance_measure")
	require.Len(t, scores, 1)
	assert.Equal(t, "x", scores[0].Driver)
	assert.InDelta(t, 0.25, scores[0].RSquared, 1e-9)
}

func TestPerformanceMeasure(t *testing.T) {
	courses := []model.CorrelationResult{
		defined("A", 0.8, 10),
		{Group: "B", Correlation: model.Correlation{N: 3, Status: model.StatusZeroVariance}},
	}

	excl, excluded := PerformanceMeasure(courses, model.PolicyExclude)
	assert.Equal(t, []interface{}{"A"}, column(excl, model.ColCourse))
	require.Len(t, excluded, 1)
	assert.Equal(t, "B", excluded[0].Group)

	zero, excluded := PerformanceMeasure(courses, model.PolicyZero)
	assert.Equal(t, []interface{}{0.8, 0.0}, column(zero, model.ColPerformanceMeasure))
	assert.Empty(t, excluded)
}

func TestBuildDriverTable(t *testing.T) {
	courses := []model.CorrelationResult{defined("A", 0.8, 10), defined("B", 0.2, 10), defined("Z", 0.5, 4)}
	extract := newTable("drivers", []string{model.ColCourse, model.ColCourseType, model.ColCoursePrice, "posts_per_student"},
		[]interface{}{"A", "short", 1000, nil},
		[]interface{}{"B", "long", nil, 2.5},
		[]interface{}{"C", "long", 700, 1.0},
	)

	tbl, stats, excluded := BuildDriverTable(courses, extract, model.PolicyExclude)

	assert.Equal(t, "driver_table", tbl.Name)
	assert.Equal(t, append(append([]string{model.ColCourse, model.ColPerformanceMeasure}, DriverColumns()...), model.ColCourseType), tbl.Columns)
	assert.Equal(t, []interface{}{"A", "B"}, column(tbl, model.ColCourse))
	assert.Equal(t, []interface{}{1000, 0.0}, column(tbl, model.ColCoursePrice))
	assert.Equal(t, []interface{}{0.0, 2.5}, column(tbl, "posts_per_student"))
	assert.Equal(t, []interface{}{0.0, 0.0}, column(tbl, "proportion_pros"), "absent drivers are zero-filled")
	assert.Equal(t, 1, stats.LeftUnmatched)
	assert.Equal(t, 1, stats.RightUnmatched)
	assert.Empty(t, excluded)
}

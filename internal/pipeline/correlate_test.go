package pipeline

import (
	"go-forum-analytics/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
		status model.CorrelationStatus
		r2     float64
	}{
		{"perfect positive", []float64{50, 60, 70}, []float64{1, 2, 3}, model.StatusDefined, 1},
		{"perfect negative", []float64{1, 2, 3}, []float64{6, 4, 2}, model.StatusDefined, 1},
		{"partial", []float64{1, 2, 3}, []float64{3, 1, 2}, model.StatusDefined, 0.25},
		{"constant marks", []float64{50, 50, 50}, []float64{1, 2, 3}, model.StatusZeroVariance, 0},
		{"constant posts", []float64{50, 60, 70}, []float64{4, 4, 4}, model.StatusZeroVariance, 0},
		{"two identical rows", []float64{80, 80}, []float64{3, 3}, model.StatusZeroVariance, 0},
		{"single row", []float64{80}, []float64{3}, model.StatusInsufficientRows, 0},
		{"empty", nil, nil, model.StatusInsufficientRows, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Pearson(tc.xs, tc.ys)
			assert.Equal(t, tc.status, c.Status)
			assert.Equal(t, len(tc.xs), c.N)
			if tc.status == model.StatusDefined {
				assert.InDelta(t, tc.r2, c.RSquared, 1e-9)
				assert.InDelta(t, c.R*c.R, c.RSquared, 1e-12)
			}
		})
	}
}

func TestPearsonSymmetricAndBounded(t *testing.T) {
	samples := [][2][]float64{
		{{50, 60, 70, 65, 90}, {1, 2, 3, 0, 12}},
		{{10, 0, 35, 35, 100}, {7, 7, 1, 9, 2}},
		{{1e6, 2e6, 3.5e6}, {0.001, 0.002, 0.0001}},
		{{-5, 5, -5, 5}, {1, 2, 3, 4}},
	}

	for _, s := range samples {
		xy := Pearson(s[0], s[1])
		yx := Pearson(s[1], s[0])
		require.True(t, xy.Defined())
		assert.InDelta(t, xy.RSquared, yx.RSquared, 1e-12)
		assert.GreaterOrEqual(t, xy.RSquared, 0.0)
		assert.LessOrEqual(t, xy.RSquared, 1.0)
	}
}

func TestCorrelateSkipsIncompletePairs(t *testing.T) {
	tbl := newTable("students", []string{"final_mark", "number_of_posts"},
		[]interface{}{50, 1},
		[]interface{}{60, nil},
		[]interface{}{nil, 9},
		[]interface{}{"n/a", 4},
		[]interface{}{70.0, "3"},
		[]interface{}{60, 2},
	)

	c := Correlate(tbl, "final_mark", "number_of_posts")
	assert.Equal(t, 3, c.N)
	require.True(t, c.Defined())
	assert.InDelta(t, 1.0, c.RSquared, 1e-9)
}

func TestPartition(t *testing.T) {
	tbl := newTable("students", []string{"course", "v"},
		[]interface{}{"B", 1},
		[]interface{}{"A", 2},
		[]interface{}{nil, 3},
		[]interface{}{"B", 4},
		[]interface{}{"", 5},
	)

	order, parts := Partition(tbl, "course")
	assert.Equal(t, []string{"B", "A"}, order)
	assert.Equal(t, 2, parts["B"].Len())
	assert.Equal(t, 1, parts["A"].Len())
	assert.Len(t, parts, 2)
}

func TestGroupedCorrelationOrdering(t *testing.T) {
	cols := []string{"course", "final_mark", "number_of_posts"}
	tbl := newTable("students", cols,
		// C: r = -0.5
		[]interface{}{"C", 1, 3}, []interface{}{"C", 2, 1}, []interface{}{"C", 3, 2},
		// D: constant marks
		[]interface{}{"D", 50, 1}, []interface{}{"D", 50, 2},
		// B and A tie at r² = 1; B is seen first
		[]interface{}{"B", 1, 1}, []interface{}{"B", 2, 2}, []interface{}{"B", 3, 3},
		[]interface{}{"A", 1, 1}, []interface{}{"A", 2, 2}, []interface{}{"A", 3, 3},
		// E: one student
		[]interface{}{"E", 70, 4},
	)

	results := GroupedCorrelation(tbl, "course", "final_mark", "number_of_posts")
	assert.Equal(t, []string{"B", "A", "C", "D", "E"}, groups(results))
	assert.Equal(t, model.StatusZeroVariance, results[3].Status)
	assert.Equal(t, model.StatusInsufficientRows, results[4].Status)

	ranked := Ranked(results)
	assert.Equal(t, []string{"B", "A", "C"}, groups(ranked))
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].RSquared, ranked[i].RSquared)
	}
	assert.Equal(t, []string{"D", "E"}, groups(Degenerate(results)))
}

func TestGroupedCorrelationScenarios(t *testing.T) {
	cols := []string{"course", "final_mark", "number_of_posts"}
	tbl := newTable("students", cols,
		[]interface{}{"A", 50, 1}, []interface{}{"A", 60, 2}, []interface{}{"A", 70, 3},
		[]interface{}{"B", 50, 1}, []interface{}{"B", 50, 5}, []interface{}{"B", 50, 9},
	)

	results := GroupedCorrelation(tbl, "course", "final_mark", "number_of_posts")
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].Group)
	assert.InDelta(t, 1.0, results[0].RSquared, 1e-9)
	assert.Equal(t, "B", results[1].Group)
	assert.Equal(t, model.StatusZeroVariance, results[1].Status)
	assert.Equal(t, 3, results[1].N)
	assert.Equal(t, []string{"A"}, groups(Ranked(results)))
}

func TestResultsTable(t *testing.T) {
	results := []model.CorrelationResult{
		{Group: "A", Correlation: model.Correlation{R: 0.5, RSquared: 0.25, N: 4}},
		{Group: "B", Correlation: model.Correlation{N: 2, Status: model.StatusZeroVariance}},
	}

	tbl := ResultsTable("r2", "course", results)
	assert.Equal(t, []string{"course", model.ColRSquared, "n"}, tbl.Columns)
	assert.Equal(t, []interface{}{0.25, nil}, column(tbl, model.ColRSquared))
	assert.Equal(t, []interface{}{4, 2}, column(tbl, "n"))
}

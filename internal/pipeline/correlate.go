package pipeline

import (
	"go-forum-analytics/internal/model"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Pearson computes the correlation coefficient of two paired samples.
// Fewer than two pairs, or a constant sample on either side, yields a
// degenerate result instead of NaN.
func Pearson(xs, ys []float64) model.Correlation {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	xs, ys = xs[:n], ys[:n]

	c := model.Correlation{N: n}
	if n < 2 {
		c.Status = model.StatusInsufficientRows
		return c
	}
	if constant(xs) || constant(ys) {
		c.Status = model.StatusZeroVariance
		return c
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		c.Status = model.StatusZeroVariance
		return c
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	c.R = r
	c.RSquared = r * r
	c.Status = model.StatusDefined
	return c
}

func constant(vals []float64) bool {
	for _, v := range vals[1:] {
		if v != vals[0] {
			return false
		}
	}
	return true
}

// Correlate computes the correlation between columns x and y of t, using only
// rows where both values are numeric.
func Correlate(t *model.Table, x, y string) model.Correlation {
	xs, ys := pairs(t, x, y)
	return Pearson(xs, ys)
}

func pairs(t *model.Table, x, y string) ([]float64, []float64) {
	xs := make([]float64, 0, t.Len())
	ys := make([]float64, 0, t.Len())
	for i := range t.Rows {
		xv, okX := t.Float(i, x)
		yv, okY := t.Float(i, y)
		if okX && okY {
			xs = append(xs, xv)
			ys = append(ys, yv)
		}
	}
	return xs, ys
}

// Partition splits t by the text value of key, in order of first appearance.
// Rows with a missing key belong to no partition.
func Partition(t *model.Table, key string) ([]string, map[string]*model.Table) {
	order := make([]string, 0)
	parts := make(map[string]*model.Table)
	for _, rec := range t.Rows {
		k := rec.Text(key)
		if k == "" {
			continue
		}
		part, exists := parts[k]
		if !exists {
			part = model.NewTable(t.Name+":"+k, t.Columns...)
			parts[k] = part
			order = append(order, k)
		}
		part.Rows = append(part.Rows, rec)
	}
	return order, parts
}

// GroupedCorrelation correlates x and y within every partition of t by key.
// Defined results come first, sorted by r² descending with ties kept in
// first-appearance order; degenerate partitions follow in first-appearance order.
func GroupedCorrelation(t *model.Table, key, x, y string) []model.CorrelationResult {
	order, parts := Partition(t, key)

	defined := make([]model.CorrelationResult, 0, len(order))
	var degenerate []model.CorrelationResult
	for _, k := range order {
		res := model.CorrelationResult{Group: k, Correlation: Correlate(parts[k], x, y)}
		if res.Defined() {
			defined = append(defined, res)
		} else {
			degenerate = append(degenerate, res)
		}
	}

	sort.SliceStable(defined, func(i, j int) bool {
		return defined[i].RSquared > defined[j].RSquared
	})
	return append(defined, degenerate...)
}

// Ranked keeps only the defined results, preserving their order.
func Ranked(results []model.CorrelationResult) []model.CorrelationResult {
	out := make([]model.CorrelationResult, 0, len(results))
	for _, r := range results {
		if r.Defined() {
			out = append(out, r)
		}
	}
	return out
}

// Degenerate returns the results that could not be computed.
func Degenerate(results []model.CorrelationResult) []model.CorrelationResult {
	var out []model.CorrelationResult
	for _, r := range results {
		if !r.Defined() {
			out = append(out, r)
		}
	}
	return out
}

// ResultsTable turns grouped results into a (group, r_squared, n) table.
// Undefined r² is left missing.
func ResultsTable(name, groupCol string, results []model.CorrelationResult) *model.Table {
	t := model.NewTable(name, groupCol, model.ColRSquared, "n")
	for _, r := range results {
		rec := model.GenericRecord{groupCol: r.Group, "n": r.N, model.ColRSquared: nil}
		if r.Defined() {
			rec[model.ColRSquared] = r.RSquared
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

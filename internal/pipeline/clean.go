package pipeline

import (
	"go-forum-analytics/internal/model"
	"go-forum-analytics/pkg/utils"
	"strings"
)

// CleanStats counts what the cleaning steps changed.
type CleanStats struct {
	Filled  int `json:"filled"`
	Clamped int `json:"clamped"`
	Dropped int `json:"dropped"`
}

// Cleaner applies permissive cleaning steps and keeps a tally of the changes.
// Every step returns a new table; the input is never mutated.
type Cleaner struct {
	Stats CleanStats
}

// FillNA replaces missing values in cols (all columns when none given) with value.
func (c *Cleaner) FillNA(t *model.Table, value interface{}, cols ...string) *model.Table {
	if len(cols) == 0 {
		cols = t.Columns
	}
	out := t.Clone()
	for _, col := range cols {
		out.AddColumn(col)
	}
	for _, rec := range out.Rows {
		for _, col := range cols {
			if utils.IsMissing(rec[col]) {
				rec[col] = value
				c.Stats.Filled++
			}
		}
	}
	return out
}

// Clamp lowers numeric values of col above ceiling to ceiling.
// Missing and non-numeric values are left alone.
func (c *Cleaner) Clamp(t *model.Table, col string, ceiling float64) *model.Table {
	out := t.Clone()
	for _, rec := range out.Rows {
		if v, ok := utils.ToFloat(rec[col]); ok && v > ceiling {
			rec[col] = ceiling
			c.Stats.Clamped++
		}
	}
	return out
}

// DropNA removes rows holding a missing value in any of cols (all columns when none given).
func (c *Cleaner) DropNA(t *model.Table, cols ...string) *model.Table {
	if len(cols) == 0 {
		cols = t.Columns
	}
	out := Filter(t, func(rec model.GenericRecord) bool {
		for _, col := range cols {
			if utils.IsMissing(rec[col]) {
				return false
			}
		}
		return true
	})
	c.Stats.Dropped += t.Len() - out.Len()
	return out
}

// FillNA is Cleaner.FillNA without the tally.
func FillNA(t *model.Table, value interface{}, cols ...string) *model.Table {
	return (&Cleaner{}).FillNA(t, value, cols...)
}

// Clamp is Cleaner.Clamp without the tally.
func Clamp(t *model.Table, col string, ceiling float64) *model.Table {
	return (&Cleaner{}).Clamp(t, col, ceiling)
}

// DropNA is Cleaner.DropNA without the tally.
func DropNA(t *model.Table, cols ...string) *model.Table {
	return (&Cleaner{}).DropNA(t, cols...)
}

// Predicate decides whether a row is kept by Filter.
type Predicate func(rec model.GenericRecord) bool

// Filter returns the rows matching pred, sharing the row maps with t.
func Filter(t *model.Table, pred Predicate) *model.Table {
	out := model.NewTable(t.Name, t.Columns...)
	for _, rec := range t.Rows {
		if pred(rec) {
			out.Rows = append(out.Rows, rec)
		}
	}
	return out
}

// GreaterThan keeps rows whose numeric col is strictly above v.
func GreaterThan(col string, v float64) Predicate {
	return func(rec model.GenericRecord) bool {
		f, ok := utils.ToFloat(rec[col])
		return ok && f > v
	}
}

// In keeps rows whose col equals one of values.
func In(col string, values ...string) Predicate {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return func(rec model.GenericRecord) bool {
		return set[rec.Text(col)]
	}
}

// Contains keeps rows whose col contains substr. Missing values never match.
func Contains(col, substr string) Predicate {
	return func(rec model.GenericRecord) bool {
		s := rec.Text(col)
		return s != "" && strings.Contains(s, substr)
	}
}

// Concat derives target by joining the text of cols with sep.
// The result is missing when any part is missing.
func Concat(t *model.Table, target, sep string, cols ...string) *model.Table {
	out := t.Clone()
	out.AddColumn(target)
	for _, rec := range out.Rows {
		parts := make([]string, 0, len(cols))
		for _, col := range cols {
			s := rec.Text(col)
			if s == "" {
				parts = nil
				break
			}
			parts = append(parts, s)
		}
		if parts == nil {
			rec[target] = nil
			continue
		}
		rec[target] = strings.Join(parts, sep)
	}
	return out
}

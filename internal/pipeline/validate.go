package pipeline

import (
	"fmt"
	"go-forum-analytics/internal/model"
	"go-forum-analytics/pkg/utils"
	"strings"
)

// ValidationRules describe what a stage expects from an input table.
type ValidationRules struct {
	RequiredColumns []string
	NumericColumns  []string
}

// ValidationResult counts the values Validate had to discard.
type ValidationResult struct {
	// Invalid maps a numeric column to the number of non-numeric values blanked in it.
	Invalid map[string]int
}

// Total is the number of discarded values across columns.
func (v ValidationResult) Total() int {
	n := 0
	for _, c := range v.Invalid {
		n += c
	}
	return n
}

// Validate checks t against rules. A missing required column is an error.
// Non-numeric text in a numeric column is replaced by a missing value, so the
// later cleaning steps treat it like any other gap.
func Validate(t *model.Table, rules ValidationRules) (*model.Table, ValidationResult, error) {
	res := ValidationResult{Invalid: make(map[string]int)}

	var missing []string
	for _, c := range rules.RequiredColumns {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, res, fmt.Errorf("%s: %w: %s", t.Name, ErrMissingColumn, strings.Join(missing, ", "))
	}

	var numeric []string
	for _, c := range rules.NumericColumns {
		if t.HasColumn(c) {
			numeric = append(numeric, c)
		}
	}
	if len(numeric) == 0 {
		return t, res, nil
	}

	out := t.Clone()
	for _, rec := range out.Rows {
		for _, col := range numeric {
			v := rec[col]
			if utils.IsMissing(v) {
				continue
			}
			if _, ok := utils.ToFloat(v); !ok {
				rec[col] = nil
				res.Invalid[col]++
			}
		}
	}
	return out, res, nil
}

// validateStage runs Validate for a stage, warning about discarded values and
// failing the stage on a schema error.
func validateStage(stage string, t *model.Table, rules ValidationRules, tracker *Tracker) (*model.Table, error) {
	out, res, err := Validate(t, rules)
	if err != nil {
		tracker.FailStage(stage, err)
		return nil, err
	}
	for _, col := range rules.NumericColumns {
		if n := res.Invalid[col]; n > 0 {
			tracker.Warn(model.Warning{
				Kind:    model.InvalidValueWarning,
				Stage:   stage,
				Subject: t.Name + "." + col,
				Message: fmt.Sprintf("%d non-numeric values treated as missing", n),
				Rows:    n,
			})
		}
	}
	return out, nil
}

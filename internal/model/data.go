package model

import (
	"fmt"
	"go-forum-analytics/pkg/utils"
	"time"
)

// GenericRecord is a schema-agnostic row keyed by column name.
// A missing value is either an absent key or nil.
type GenericRecord map[string]interface{}

// Table is an ordered collection of records sharing a schema.
type Table struct {
	Name    string          `json:"name"`
	Columns []string        `json:"columns"`
	Rows    []GenericRecord `json:"rows"`
}

// NewTable creates an empty table with the given column order.
func NewTable(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether col is part of the schema.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// AddColumn appends col to the schema if it isn't there yet.
func (t *Table) AddColumn(col string) {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
}

// Clone returns a copy whose rows can be mutated independently.
func (t *Table) Clone() *Table {
	out := NewTable(t.Name, t.Columns...)
	out.Rows = make([]GenericRecord, len(t.Rows))
	for i, rec := range t.Rows {
		out.Rows[i] = rec.Clone()
	}
	return out
}

// Float returns the numeric value of col in row i.
func (t *Table) Float(i int, col string) (float64, bool) {
	return utils.ToFloat(t.Rows[i][col])
}

// Text returns the value of col in row i formatted as a string ("" when missing).
func (t *Table) Text(i int, col string) string {
	return t.Rows[i].Text(col)
}

// Select returns a table holding only the named columns, in that order.
func (t *Table) Select(cols ...string) *Table {
	out := NewTable(t.Name, cols...)
	out.Rows = make([]GenericRecord, len(t.Rows))
	for i, rec := range t.Rows {
		row := make(GenericRecord, len(cols))
		for _, c := range cols {
			if v, ok := rec[c]; ok {
				row[c] = v
			}
		}
		out.Rows[i] = row
	}
	return out
}

// Clone copies the record map.
func (r GenericRecord) Clone() GenericRecord {
	out := make(GenericRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Text formats a value for keys, exports and console output.
func (r GenericRecord) Text(col string) string {
	v, ok := r[col]
	if !ok || utils.IsMissing(v) {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return fmt.Sprintf("%g", val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

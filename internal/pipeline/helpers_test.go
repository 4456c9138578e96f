package pipeline

import (
	"go-forum-analytics/internal/model"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTable builds a table from positional rows matching cols.
func newTable(name string, cols []string, rows ...[]interface{}) *model.Table {
	t := model.NewTable(name, cols...)
	for _, row := range rows {
		rec := make(model.GenericRecord, len(cols))
		for i, c := range cols {
			rec[c] = row[i]
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

// column collects the values of col in row order.
func column(t *model.Table, col string) []interface{} {
	out := make([]interface{}, t.Len())
	for i, rec := range t.Rows {
		out[i] = rec[col]
	}
	return out
}

func groups(results []model.CorrelationResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Group
	}
	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

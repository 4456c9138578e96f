package pipeline

import (
	"context"
	"errors"
	"go-forum-analytics/internal/model"
	"go-forum-analytics/internal/warehouse"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const studentsCSV = `course_abbreviation,"final_mark",number_of_posts,customer_tribe
GS-ABC,72,3,Dreamers
GS-ABC,65.5,,Pros
GS-XYZ,NaN,1,NULL
GS-XYZ,80,0,
`

type fakeFetcher struct {
	table   *model.Table
	err     error
	queries []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, name, query string) (*model.Table, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.table.Clone(), nil
}

func TestReadCSV(t *testing.T) {
	tbl, err := ReadCSV("students", strings.NewReader(studentsCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"course_abbreviation", "final_mark", "number_of_posts", "customer_tribe"}, tbl.Columns)
	require.Equal(t, 4, tbl.Len())
	assert.Equal(t, []interface{}{72, 65.5, nil, 80}, column(tbl, "final_mark"))
	assert.Equal(t, []interface{}{3, nil, 1, 0}, column(tbl, "number_of_posts"))
	assert.Equal(t, []interface{}{"Dreamers", "Pros", nil, nil}, column(tbl, "customer_tribe"))
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		rows    int
		columns []string
		wantErr bool
	}{
		{
			name:    "array",
			input:   `[{"course_abbreviation":"A","npsscore":9,"final_mark":70.5},{"course_abbreviation":"B","npsscore":null,"extra":"nan"}]`,
			rows:    2,
			columns: []string{"course_abbreviation", "final_mark", "npsscore", "extra"},
		},
		{
			name:    "single object",
			input:   `{"course_abbreviation":"A","npsscore":10}`,
			rows:    1,
			columns: []string{"course_abbreviation", "npsscore"},
		},
		{name: "scalar", input: `42`, wantErr: true},
		{name: "array of scalars", input: `[1,2]`, wantErr: true},
		{name: "broken", input: `[{"a":`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := ReadJSON("nps", strings.NewReader(tc.input))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.rows, tbl.Len())
			assert.Equal(t, tc.columns, tbl.Columns)
		})
	}

	tbl, err := ReadJSON("nps", strings.NewReader(`[{"npsscore":9,"final_mark":70.5,"extra":"nan"}]`))
	require.NoError(t, err)
	assert.Equal(t, 9, tbl.Rows[0]["npsscore"])
	assert.Equal(t, 70.5, tbl.Rows[0]["final_mark"])
	assert.Nil(t, tbl.Rows[0]["extra"])
}

func TestLoadCSVFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "students.csv", studentsCSV)

	tbl, err := Load(context.Background(), "students", model.Source{Type: "csv", URL: path}, nil)
	require.NoError(t, err)
	assert.Equal(t, "students", tbl.Name)
	assert.Equal(t, 4, tbl.Len())
}

func TestLoadOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/students.csv":
			w.Write([]byte(studentsCSV))
		case "/nps":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[{"course_abbreviation":"A","final_mark":60,"npsscore":8}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	students, err := Load(ctx, "students", model.Source{Type: "csv", URL: srv.URL + "/students.csv"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 4, students.Len())

	nps, err := Load(ctx, "nps", model.Source{Type: "api", URL: srv.URL + "/nps"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, nps.Rows[0]["npsscore"])

	_, err = Load(ctx, "nps", model.Source{Type: "json", URL: srv.URL + "/missing"}, nil)
	assert.True(t, warehouse.IsDataFetchError(err))
}

func TestLoadWarehouse(t *testing.T) {
	extract := newTable("raw", []string{"course_abbreviation", "number_of_students"}, []interface{}{"A", 10})
	fetcher := &fakeFetcher{table: extract}

	tbl, err := Load(context.Background(), "drivers", model.Source{Type: "warehouse", Query: "SELECT 1"}, fetcher)
	require.NoError(t, err)
	assert.Equal(t, "drivers", tbl.Name)
	assert.Equal(t, []string{"SELECT 1"}, fetcher.queries)
}

func TestLoadFailuresAreDataFetchErrors(t *testing.T) {
	refused := errors.New("connection refused")

	tests := []struct {
		name    string
		src     model.Source
		fetcher Fetcher
	}{
		{"missing file", model.Source{Type: "csv", URL: filepath.Join(t.TempDir(), "nope.csv")}, nil},
		{"unknown type", model.Source{Type: "parquet", URL: "x"}, nil},
		{"no warehouse", model.Source{Type: "warehouse", Query: "SELECT 1"}, nil},
		{"empty query", model.Source{Type: "sql", Query: "  "}, &fakeFetcher{}},
		{"query failed", model.Source{Type: "warehouse", Query: "SELECT 1"}, &fakeFetcher{err: refused}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := Load(context.Background(), "students", tc.src, tc.fetcher)
			assert.Nil(t, tbl)
			require.Error(t, err)
			assert.True(t, warehouse.IsDataFetchError(err))

			var fetchErr *warehouse.DataFetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, "students", fetchErr.Source)
		})
	}

	_, err := Load(context.Background(), "drivers", model.Source{Type: "warehouse", Query: "SELECT 1"}, &fakeFetcher{err: refused})
	assert.ErrorIs(t, err, refused)
}

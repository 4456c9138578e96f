package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"go-forum-analytics/internal/model"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *model.AnalysisReport {
	return &model.AnalysisReport{
		RunID: "run-1",
		Subsets: []model.SubsetCorrelation{
			{Label: "all students", Correlation: model.Correlation{R: 0.5, RSquared: 0.25, N: 10}},
			{Label: "posts > 10", Correlation: model.Correlation{N: 1, Status: model.StatusInsufficientRows}},
		},
		Groupings: []model.GroupedCorrelation{{
			GroupBy: model.ColCourse,
			Results: []model.CorrelationResult{
				{Group: "A", Correlation: model.Correlation{R: 0.9, RSquared: 0.81, N: 5}},
				{Group: "B", Correlation: model.Correlation{N: 3, Status: model.StatusZeroVariance}},
			},
		}},
		Drivers: []model.DriverScore{
			{Driver: "posts_per_student", Correlation: model.Correlation{R: -0.6, RSquared: 0.36, N: 4}},
		},
		NPS: []model.CorrelationResult{
			{Group: "A", Correlation: model.Correlation{R: 0.1, RSquared: 0.01, N: 4}},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	tbl := newTable("r2", []string{"course", "r_squared", "n"},
		[]interface{}{"A", 0.25, 4},
		[]interface{}{"B, C", nil, 2},
	)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl))
	assert.Equal(t, "course,r_squared,n\nA,0.25,4\n\"B, C\",,2\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	tbl := model.NewTable("empty", "a", "b")

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, "run-1", tbl))

	var out struct {
		ExportInfo struct {
			RunID       string `json:"run_id"`
			Table       string `json:"table"`
			RecordCount int    `json:"record_count"`
		} `json:"export_info"`
		Columns []string                 `json:"columns"`
		Data    []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "run-1", out.ExportInfo.RunID)
	assert.Equal(t, "empty", out.ExportInfo.Table)
	assert.Equal(t, []string{"a", "b"}, out.Columns)
	assert.NotNil(t, out.Data)
	assert.Empty(t, out.Data)
}

func TestReportTables(t *testing.T) {
	names := []string{}
	for _, tbl := range ReportTables(sampleReport()) {
		names = append(names, tbl.Name)
	}
	assert.Equal(t, []string{"subsets", "r2_by_course_abbreviation", "drivers", "nps_r2_by_course"}, names)
}

func TestExporterFiles(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"csv", ".csv"},
		{"json", ".json"},
	}

	for _, tc := range tests {
		t.Run(tc.format, func(t *testing.T) {
			dir := t.TempDir()
			exp := NewExporter("run-1", &model.Export{Dir: dir, Format: tc.format}, nil)

			results := exp.Export(context.Background(), sampleReport())
			require.Len(t, results, 4)
			for _, r := range results {
				assert.True(t, r.Success, r.Error)
				assert.Equal(t, tc.format, r.Type)
				assert.FileExists(t, r.Path)
			}

			data, err := os.ReadFile(filepath.Join(dir, "run-1", "r2_by_course_abbreviation"+tc.ext))
			require.NoError(t, err)
			assert.Contains(t, string(data), "0.81")
		})
	}
}

func TestExporterUnknownFormat(t *testing.T) {
	exp := NewExporter("run-1", &model.Export{Dir: t.TempDir(), Format: "xml"}, nil)
	for _, r := range exp.Export(context.Background(), sampleReport()) {
		assert.False(t, r.Success)
		assert.Contains(t, r.Error, "unknown export format")
	}
}

func TestExporterDatabase(t *testing.T) {
	st := openStore(t)
	exp := NewExporter("run-1", &model.Export{Dir: t.TempDir(), DB: true}, st)

	results := exp.Export(context.Background(), sampleReport())
	db := results[len(results)-1]
	require.True(t, db.Success, db.Error)
	assert.Equal(t, "database", db.Type)
	assert.Equal(t, 6, db.RecordCount)

	stored, err := st.GetCorrelations("run-1")
	require.NoError(t, err)
	require.Len(t, stored, 5)
	assert.Equal(t, "subset", stored[0].Analysis)
	assert.Equal(t, model.StatusInsufficientRows, stored[1].Status)
	assert.Equal(t, model.ColCourse, stored[2].Analysis)
	assert.Equal(t, "nps", stored[4].Analysis)

	drivers, err := st.GetDriverScores("run-1")
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.InDelta(t, 0.36, drivers[0].RSquared, 1e-12)
}

func TestExporterDatabaseWithoutStore(t *testing.T) {
	exp := NewExporter("run-1", &model.Export{Dir: t.TempDir(), DB: true}, nil)
	results := exp.Export(context.Background(), sampleReport())
	db := results[len(results)-1]
	assert.False(t, db.Success)
	assert.Equal(t, "database", db.Type)
}

type closeRecorder struct {
	bytes.Buffer
	closeErr error
	closed   int
}

func (c *closeRecorder) Close() error {
	c.closed++
	return c.closeErr
}

func TestWriteAndClose(t *testing.T) {
	errWrite := errors.New("disk full")
	errClose := errors.New("flush on close")

	tests := []struct {
		name     string
		writeErr error
		closeErr error
		want     error
	}{
		{"clean", nil, nil, nil},
		{"close fails", nil, errClose, errClose},
		{"write fails", errWrite, nil, errWrite},
		{"write error wins", errWrite, errClose, errWrite},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wc := &closeRecorder{closeErr: tc.closeErr}
			err := writeAndClose(wc, func(w io.Writer) error {
				_, _ = w.Write([]byte("a,b\n"))
				return tc.writeErr
			})

			assert.Equal(t, 1, wc.closed)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

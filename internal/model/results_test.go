package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationStatusJSON(t *testing.T) {
	tests := []struct {
		status CorrelationStatus
		name   string
	}{
		{StatusDefined, `"defined"`},
		{StatusInsufficientRows, `"insufficient_rows"`},
		{StatusZeroVariance, `"zero_variance"`},
	}

	for _, tc := range tests {
		t.Run(tc.status.String(), func(t *testing.T) {
			data, err := json.Marshal(tc.status)
			require.NoError(t, err)
			assert.Equal(t, tc.name, string(data))

			var back CorrelationStatus
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tc.status, back)
		})
	}
}

func TestCorrelationStatusUnknownName(t *testing.T) {
	var s CorrelationStatus = StatusDefined
	require.NoError(t, json.Unmarshal([]byte(`"exploded"`), &s))
	assert.Equal(t, StatusInsufficientRows, s)

	assert.Error(t, json.Unmarshal([]byte(`3`), &s))
	assert.Equal(t, "unknown", CorrelationStatus(42).String())
}

func TestCorrelationResultJSON(t *testing.T) {
	in := CorrelationResult{Group: "B", Correlation: Correlation{N: 3, Status: StatusZeroVariance}}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"group":"B","r":0,"r_squared":0,"n":3,"status":"zero_variance"}`, string(data))

	var out CorrelationResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
	assert.False(t, out.Defined())
}

func TestWithDefaults(t *testing.T) {
	s := AnalysisSpec{Export: &Export{Dir: "out"}}.WithDefaults()

	assert.Equal(t, "discussion-forum-drivers", s.Name)
	assert.Equal(t, []float64{1, 5, 10}, s.PostThresholds)
	assert.Equal(t, []string{"Dreamers", "Realists"}, s.TribeSubset)
	assert.Equal(t, 100.0, s.GradeCeiling)
	assert.Equal(t, []string{ColCourse, ColSubjectVertical, ColCourseType}, s.GroupBy)
	assert.Equal(t, PolicyExclude, s.DegeneratePolicy)
	require.NotNil(t, s.Export)
	assert.Equal(t, "csv", s.Export.Format)
	assert.Equal(t, "out", s.Export.Dir)

	kept := AnalysisSpec{Name: "weekly", GradeCeiling: 20, DegeneratePolicy: PolicyZero}.WithDefaults()
	assert.Equal(t, "weekly", kept.Name)
	assert.Equal(t, 20.0, kept.GradeCeiling)
	assert.Equal(t, PolicyZero, kept.DegeneratePolicy)
	assert.Nil(t, kept.Export)
}

package pipeline

import (
	"go-forum-analytics/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInnerJoin(t *testing.T) {
	left := newTable("r2", []string{"course", "r_squared"},
		[]interface{}{"A", 0.9},
		[]interface{}{"B", 0.5},
		[]interface{}{"C", 0.1},
	)
	right := newTable("extract", []string{"course", "price", "r_squared"},
		[]interface{}{"B", 1200, 0.0},
		[]interface{}{"A", 900, 0.0},
		[]interface{}{"A", 950, 0.0},
		[]interface{}{"D", 300, 0.0},
	)

	joined, stats := InnerJoin(left, right, "course")

	assert.Equal(t, []string{"course", "r_squared", "price"}, joined.Columns)
	assert.Equal(t, []interface{}{"A", "B"}, column(joined, "course"))
	assert.Equal(t, []interface{}{900, 1200}, column(joined, "price"), "first right row wins")
	assert.Equal(t, []interface{}{0.9, 0.5}, column(joined, "r_squared"), "left values win")

	assert.Equal(t, JoinStats{Left: 3, Right: 4, Matched: 2, LeftUnmatched: 1, RightUnmatched: 1, RightDuplicates: 1}, stats)
	assert.Equal(t, 2, stats.Dropped())
}

func TestInnerJoinNeverExceedsSmallerSide(t *testing.T) {
	tests := []struct {
		name        string
		left, right []string
	}{
		{"disjoint", []string{"A", "B"}, []string{"C", "D"}},
		{"subset", []string{"A"}, []string{"A", "B", "C"}},
		{"superset", []string{"A", "B", "C"}, []string{"C"}},
		{"empty right", []string{"A"}, nil},
		{"identical", []string{"A", "B"}, []string{"B", "A"}},
		{"duplicate left keys", []string{"A", "A", "A"}, []string{"A"}},
		{"duplicates on both sides", []string{"A", "B", "A", "B"}, []string{"B", "B", "A", "C", "A"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			left, right := model.NewTable("l", "k"), model.NewTable("r", "k")
			for _, k := range tc.left {
				left.Rows = append(left.Rows, model.GenericRecord{"k": k})
			}
			for _, k := range tc.right {
				right.Rows = append(right.Rows, model.GenericRecord{"k": k})
			}

			joined, stats := InnerJoin(left, right, "k")
			assert.LessOrEqual(t, joined.Len(), min(left.Len(), right.Len()))
			assert.Equal(t, stats.Matched, joined.Len())
			assert.Equal(t, left.Len(), stats.Matched+stats.LeftUnmatched+stats.LeftDuplicates)
		})
	}
}

func TestInnerJoinDuplicateLeftKeys(t *testing.T) {
	left := newTable("extract", []string{"course", "price"},
		[]interface{}{"A", 100},
		[]interface{}{"A", 200},
		[]interface{}{"A", 300},
	)
	right := newTable("aggregates", []string{"course", "students"}, []interface{}{"A", 12})

	joined, stats := InnerJoin(left, right, "course")
	require.Equal(t, 1, joined.Len())
	assert.Equal(t, 100, joined.Rows[0]["price"], "first left row wins")
	assert.Equal(t, 12, joined.Rows[0]["students"])
	assert.Equal(t, JoinStats{Left: 3, Right: 1, Matched: 1, LeftDuplicates: 2}, stats)
	assert.Zero(t, stats.Dropped())
}

func TestInnerJoinMixedKeyTypes(t *testing.T) {
	left := newTable("l", []string{"course"}, []interface{}{101}, []interface{}{nil})
	right := newTable("r", []string{"course", "v"}, []interface{}{"101", "x"}, []interface{}{nil, "y"})

	joined, stats := InnerJoin(left, right, "course")
	require.Equal(t, 1, joined.Len())
	assert.Equal(t, "x", joined.Rows[0]["v"])
	assert.Equal(t, 1, stats.LeftUnmatched)
	assert.Equal(t, 1, stats.RightUnmatched)
}

func TestDeriveRatio(t *testing.T) {
	in := newTable("extract", []string{"number_of_dreamers", "number_of_students"},
		[]interface{}{3, 10},
		[]interface{}{5, 0},
		[]interface{}{nil, 10},
		[]interface{}{0, 4},
	)

	out := DeriveRatio(in, "proportion_dreamers", "number_of_dreamers", "number_of_students", 100)

	require.True(t, out.HasColumn("proportion_dreamers"))
	assert.Equal(t, []interface{}{30.0, nil, nil, 0.0}, column(out, "proportion_dreamers"))
	assert.False(t, in.HasColumn("proportion_dreamers"))
}

func TestTribeProportions(t *testing.T) {
	ratios := TribeProportions(model.ColStudents, model.Tribes...)
	require.Len(t, ratios, len(model.Tribes))
	assert.Equal(t, Ratio{
		Target:      "proportion_aspirants",
		Numerator:   "number_of_aspirants",
		Denominator: model.ColStudents,
		Scale:       100,
	}, ratios[0])
}

func TestEngagementRatios(t *testing.T) {
	in := newTable("extract",
		[]string{model.ColStakeholders, model.ColStakeholderPosts, model.ColStakeholderLikes, model.ColStudents, model.ColStudentPosts, model.ColStudentLikes},
		[]interface{}{4, 20, 8, 50, 100, 25},
	)

	out := DeriveRatios(in, EngagementRatios()...)
	rec := out.Rows[0]
	assert.Equal(t, 5.0, rec["posts_per_stakeholder"])
	assert.Equal(t, 2.0, rec["likes_per_stakeholder"])
	assert.Equal(t, 2.0, rec["posts_per_student"])
	assert.Equal(t, 0.5, rec["likes_per_student"])
}

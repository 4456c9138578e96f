package pipeline

import (
	"go-forum-analytics/internal/model"
	"go-forum-analytics/pkg/utils"
	"strings"
)

// JoinStats describes how many rows an inner join kept and dropped.
type JoinStats struct {
	Left            int `json:"left"`
	Right           int `json:"right"`
	Matched         int `json:"matched"`
	LeftUnmatched   int `json:"left_unmatched"`
	LeftDuplicates  int `json:"left_duplicates"`
	RightUnmatched  int `json:"right_unmatched"`
	RightDuplicates int `json:"right_duplicates"`
}

// Dropped is the number of rows lost on both sides.
func (s JoinStats) Dropped() int {
	return s.LeftUnmatched + s.RightUnmatched
}

// InnerJoin joins left and right on key, compared as text.
// Only the first row per key is used on either side, so the result never has
// more rows than the smaller input. Rows without a counterpart are dropped.
// Left values win on column collisions.
func InnerJoin(left, right *model.Table, key string) (*model.Table, JoinStats) {
	stats := JoinStats{Left: left.Len(), Right: right.Len()}

	index := make(map[string]model.GenericRecord, right.Len())
	for _, rec := range right.Rows {
		k := rec.Text(key)
		if k == "" {
			continue
		}
		if _, exists := index[k]; exists {
			stats.RightDuplicates++
			continue
		}
		index[k] = rec
	}

	out := model.NewTable(left.Name+"+"+right.Name, left.Columns...)
	for _, col := range right.Columns {
		out.AddColumn(col)
	}

	used := make(map[string]bool, len(index))
	for _, lrec := range left.Rows {
		k := lrec.Text(key)
		rrec, ok := index[k]
		if k == "" || !ok {
			stats.LeftUnmatched++
			continue
		}
		if used[k] {
			stats.LeftDuplicates++
			continue
		}
		used[k] = true
		joined := rrec.Clone()
		for c, v := range lrec {
			joined[c] = v
		}
		out.Rows = append(out.Rows, joined)
		stats.Matched++
	}

	for _, rec := range right.Rows {
		if !used[rec.Text(key)] {
			stats.RightUnmatched++
		}
	}
	return out, stats
}

// Ratio derives Target = Numerator / Denominator * Scale.
type Ratio struct {
	Target      string
	Numerator   string
	Denominator string
	Scale       float64
}

// DeriveRatio adds target = num*scale/den. A missing operand or a zero
// denominator leaves target missing.
func DeriveRatio(t *model.Table, target, num, den string, scale float64) *model.Table {
	return DeriveRatios(t, Ratio{Target: target, Numerator: num, Denominator: den, Scale: scale})
}

// DeriveRatios applies several ratios in order.
func DeriveRatios(t *model.Table, ratios ...Ratio) *model.Table {
	out := t.Clone()
	for _, r := range ratios {
		scale := r.Scale
		if scale == 0 {
			scale = 1
		}
		out.AddColumn(r.Target)
		for _, rec := range out.Rows {
			n, okN := utils.ToFloat(rec[r.Numerator])
			d, okD := utils.ToFloat(rec[r.Denominator])
			if !okN || !okD || d == 0 {
				rec[r.Target] = nil
				continue
			}
			rec[r.Target] = n * scale / d
		}
	}
	return out
}

// TribeProportions builds the proportion_<tribe> = number_of_<tribe> / total * 100 ratios.
func TribeProportions(total string, tribes ...string) []Ratio {
	ratios := make([]Ratio, 0, len(tribes))
	for _, tribe := range tribes {
		name := strings.ToLower(tribe)
		ratios = append(ratios, Ratio{
			Target:      "proportion_" + name,
			Numerator:   "number_of_" + name,
			Denominator: total,
			Scale:       100,
		})
	}
	return ratios
}

// EngagementRatios builds the per-capita posts and likes ratios of the driver table.
func EngagementRatios() []Ratio {
	return []Ratio{
		{Target: "posts_per_stakeholder", Numerator: model.ColStakeholderPosts, Denominator: model.ColStakeholders, Scale: 1},
		{Target: "likes_per_stakeholder", Numerator: model.ColStakeholderLikes, Denominator: model.ColStakeholders, Scale: 1},
		{Target: "posts_per_student", Numerator: model.ColStudentPosts, Denominator: model.ColStudents, Scale: 1},
		{Target: "likes_per_student", Numerator: model.ColStudentLikes, Denominator: model.ColStudents, Scale: 1},
	}
}

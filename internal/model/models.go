package model

// Column names produced by the warehouse extracts and by the pipeline itself.
const (
	ColCourse          = "course_abbreviation"
	ColSubjectVertical = "subject_vertical"
	ColCourseType      = "course_type"
	ColTribe           = "customer_tribe"
	ColFinalMark       = "final_mark"
	ColPosts           = "number_of_posts"
	ColStudentName     = "student_name"
	ColUserID          = "vle_user_id"
	ColNPS             = "npsscore"

	ColPresentation = "presentation_abbreviation"
	ColModuleName   = "module_name"
	ColModuleGrade  = "module_grade"
	ColCourseModule = "course_module"
	ColAverageGrade = "average_grade"
	ColStudents     = "number_of_students"

	ColStakeholders     = "number_of_stakeholders"
	ColStakeholderPosts = "stakeholder_posts"
	ColStakeholderLikes = "stakeholder_likes"
	ColStudentPosts     = "student_posts"
	ColStudentLikes     = "student_likes"
	ColCoursePrice      = "average_course_price"
	ColCourseGrade      = "average_course_grade"

	ColPerformanceMeasure = "performance_measure"
	ColRSquared           = "r_squared"
	ColDrivers            = "drivers"
)

// Tribes are the customer segmentation labels counted per course in the driver extract.
var Tribes = []string{"Aspirants", "Dreamers", "Leaders", "Pros", "Realists", "Reinventors"}

// Degenerate-partition policies for the performance measure.
const (
	PolicyExclude = "exclude"
	PolicyZero    = "zero"
)

// Source describes where one input table comes from.
type Source struct {
	Type  string `json:"type"`            // warehouse, csv, json
	Query string `json:"query,omitempty"` // SQL for warehouse sources
	URL   string `json:"url,omitempty"`   // file path or http(s) URL for csv/json
}

// Sources names the input tables of an analysis. Only Students is required.
type Sources struct {
	Students *Source `json:"students"`
	Drivers  *Source `json:"drivers,omitempty"`
	NPS      *Source `json:"nps,omitempty"`
	Modules  *Source `json:"modules,omitempty"`
}

// Export defines export targets
type Export struct {
	Dir    string `json:"dir"`    // output directory, one sub-directory per run
	Format string `json:"format"` // csv (default) or json
	DB     bool   `json:"db"`     // also persist results into the run store
}

// AnalysisSpec configures one run of the forum engagement analysis.
type AnalysisSpec struct {
	Name             string    `json:"name"`
	Sources          Sources   `json:"sources"`
	PostThresholds   []float64 `json:"postThresholds,omitempty"`
	TribeSubset      []string  `json:"tribeSubset,omitempty"`
	GradeCeiling     float64   `json:"gradeCeiling,omitempty"`
	GroupBy          []string  `json:"groupBy,omitempty"`
	DegeneratePolicy string    `json:"degeneratePolicy,omitempty"`
	Export           *Export   `json:"export,omitempty"`
}

// WithDefaults fills unset fields with the values the analysis was designed around.
func (s AnalysisSpec) WithDefaults() AnalysisSpec {
	if s.Name == "" {
		s.Name = "discussion-forum-drivers"
	}
	if len(s.PostThresholds) == 0 {
		s.PostThresholds = []float64{1, 5, 10}
	}
	if len(s.TribeSubset) == 0 {
		s.TribeSubset = []string{"Dreamers", "Realists"}
	}
	if s.GradeCeiling == 0 {
		s.GradeCeiling = 100
	}
	if len(s.GroupBy) == 0 {
		s.GroupBy = []string{ColCourse, ColSubjectVertical, ColCourseType}
	}
	if s.DegeneratePolicy == "" {
		s.DegeneratePolicy = PolicyExclude
	}
	if s.Export != nil {
		export := *s.Export
		if export.Format == "" {
			export.Format = "csv"
		}
		s.Export = &export
	}
	return s
}

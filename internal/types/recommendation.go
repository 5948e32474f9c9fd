package types

// Recommendation is the structured output of the course evaluation stage.
// The evaluator is an LLM, so the shape is best-effort: either TopCourses or
// Courses may be populated depending on how the model answered. Resolution
// order between the two is handled by ranking.SelectTop.
type Recommendation struct {
	TopCourses []Course `json:"top_courses,omitempty"`
	Courses    []Course `json:"courses,omitempty"`
	Evaluation string   `json:"evaluation,omitempty"`
}

// IsEmpty reports whether the recommendation carries no courses at all.
func (r *Recommendation) IsEmpty() bool {
	return r == nil || (len(r.TopCourses) == 0 && len(r.Courses) == 0)
}

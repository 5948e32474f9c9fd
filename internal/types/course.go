package types

// Course is a single course record extracted from a learning platform page.
type Course struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Platform     string `json:"platform,omitempty"`
	Rating       string `json:"rating,omitempty"`
	Price        string `json:"price,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Instructor   string `json:"instructor,omitempty"`
	URL          string `json:"url"`
	SourceTaskID string `json:"source_task_id,omitempty"`
	Skill        string `json:"skill,omitempty"`
	Flagged      bool   `json:"flagged,omitempty"`
}

// Eligible reports whether the course can participate in final ranking.
// A course must carry a URL to be recommendable.
func (c Course) Eligible() bool {
	return c.URL != ""
}

// FlagMissingURLs marks courses without a URL as flagged (in place) and
// returns the eligible subset. Flagged records are retained by callers so
// they still appear in cache entries and diagnostics.
func FlagMissingURLs(courses []Course) []Course {
	eligible := make([]Course, 0, len(courses))
	for i := range courses {
		if !courses[i].Eligible() {
			courses[i].Flagged = true
			continue
		}
		eligible = append(eligible, courses[i])
	}
	return eligible
}

package ranking

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorgan/careerpath-coach/internal/llm"
	"github.com/jmorgan/careerpath-coach/internal/types"
)

type fakeClient struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeClient) Close() error { return nil }

func candidates(n int) []types.Course {
	out := make([]types.Course, n)
	for i := range out {
		out[i] = types.Course{
			Title: fmt.Sprintf("Course %d", i+1),
			URL:   fmt.Sprintf("https://example.com/course-%d", i+1),
			Skill: "Spark",
		}
	}
	return out
}

func TestEvaluate(t *testing.T) {
	client := &fakeClient{response: `{
		"top_courses": [{"title": "Course 2", "url": "https://example.com/course-2"}],
		"evaluation": "Course 2 covers Spark end to end."
	}`}
	r := NewRanker(client, zerolog.Nop())

	rec := r.Evaluate(context.Background(), types.NewSkillSet([]string{"Spark"}), candidates(3))

	require.Len(t, rec.TopCourses, 1)
	assert.Equal(t, "Course 2", rec.TopCourses[0].Title)
	assert.Equal(t, "Course 2 covers Spark end to end.", rec.Evaluation)
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Spark")
	assert.Contains(t, client.prompts[0], "Course 1")
}

func TestEvaluateLLMErrorFallsBack(t *testing.T) {
	client := &fakeClient{err: errors.New("model overloaded")}
	r := NewRanker(client, zerolog.Nop())

	rec := r.Evaluate(context.Background(), types.NewSkillSet([]string{"Spark"}), candidates(7))

	assert.Empty(t, rec.TopCourses)
	require.Len(t, rec.Courses, TopN)
	assert.Equal(t, "Course 1", rec.Courses[0].Title)
	assert.Equal(t, fallbackEvaluation, rec.Evaluation)
}

func TestEvaluateUnparseableResponseFallsBack(t *testing.T) {
	client := &fakeClient{response: "These courses all look great to me!"}
	r := NewRanker(client, zerolog.Nop())

	rec := r.Evaluate(context.Background(), types.NewSkillSet([]string{"Spark"}), candidates(3))

	require.Len(t, rec.Courses, 3)
	assert.Equal(t, fallbackEvaluation, rec.Evaluation)
}

func TestEvaluateBareArrayResponse(t *testing.T) {
	client := &fakeClient{response: `[{"title": "Course 3", "url": "https://example.com/course-3"}]`}
	r := NewRanker(client, zerolog.Nop())

	rec := r.Evaluate(context.Background(), types.NewSkillSet([]string{"Spark"}), candidates(3))

	require.Len(t, rec.TopCourses, 1)
	assert.Equal(t, "Course 3", rec.TopCourses[0].Title)
}

func TestEvaluateFlagsCoursesWithoutURLs(t *testing.T) {
	client := &fakeClient{response: `{"top_courses": [{"title": "Good", "url": "https://example.com/good"}]}`}
	r := NewRanker(client, zerolog.Nop())

	cands := []types.Course{
		{Title: "No URL"},
		{Title: "Good", URL: "https://example.com/good"},
	}
	rec := r.Evaluate(context.Background(), types.NewSkillSet([]string{"Spark"}), cands)

	assert.True(t, cands[0].Flagged, "course without URL should be flagged in place")
	assert.False(t, cands[1].Flagged)
	require.Len(t, client.prompts, 1)
	assert.NotContains(t, client.prompts[0], "No URL", "flagged courses must not reach the evaluator")
	require.Len(t, rec.TopCourses, 1)
}

func TestEvaluateNoEligibleCandidates(t *testing.T) {
	client := &fakeClient{}
	r := NewRanker(client, zerolog.Nop())

	rec := r.Evaluate(context.Background(), types.NewSkillSet([]string{"Spark"}), []types.Course{{Title: "No URL"}})

	assert.NotNil(t, rec.Courses)
	assert.Empty(t, rec.Courses)
	assert.Empty(t, client.prompts, "nothing eligible means no LLM call")
}

func TestEvaluateTruncatesOversizedEvaluatorOutput(t *testing.T) {
	client := &fakeClient{response: `{"top_courses": [
		{"title": "1", "url": "u"}, {"title": "2", "url": "u"}, {"title": "3", "url": "u"},
		{"title": "4", "url": "u"}, {"title": "5", "url": "u"}, {"title": "6", "url": "u"},
		{"title": "7", "url": "u"}
	]}`}
	r := NewRanker(client, zerolog.Nop())

	rec := r.Evaluate(context.Background(), types.NewSkillSet([]string{"Spark"}), candidates(3))
	assert.Len(t, rec.TopCourses, TopN)
}

func TestSelectTop(t *testing.T) {
	raw := candidates(7)
	top := []types.Course{{Title: "Ranked", URL: "https://example.com/r"}}

	tests := []struct {
		name string
		rec  types.Recommendation
		raw  []types.Course
		want []string
	}{
		{
			name: "top_courses wins",
			rec:  types.Recommendation{TopCourses: top, Courses: raw[:2]},
			raw:  raw,
			want: []string{"Ranked"},
		},
		{
			name: "courses when no top_courses",
			rec:  types.Recommendation{Courses: raw[:2]},
			raw:  raw,
			want: []string{"Course 1", "Course 2"},
		},
		{
			name: "raw truncated when recommendation empty",
			rec:  types.Recommendation{},
			raw:  raw,
			want: []string{"Course 1", "Course 2", "Course 3", "Course 4", "Course 5"},
		},
		{
			name: "nothing anywhere",
			rec:  types.Recommendation{},
			raw:  nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectTop(tt.rec, tt.raw, TopN)
			require.NotNil(t, got)
			titles := make([]string, len(got))
			for i, c := range got {
				titles[i] = c.Title
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

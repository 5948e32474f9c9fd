package courses

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorgan/careerpath-coach/internal/dispatch"
	"github.com/jmorgan/careerpath-coach/internal/fetch"
	"github.com/jmorgan/careerpath-coach/internal/llm"
	"github.com/jmorgan/careerpath-coach/internal/types"
)

type fakeClient struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.response, f.err
}

func (f *fakeClient) Close() error { return nil }

const searchPageHTML = `<html><body><main>
Spark Fundamentals. Learn distributed data processing from scratch.
AWS Certified Solutions Architect. Prepare for the certification exam.
</main></body></html>`

func fetchOK(ctx context.Context, urlStr string, opts *fetch.Options) (*fetch.Result, error) {
	return &fetch.Result{URL: urlStr, HTML: searchPageHTML, StatusCode: 200}, nil
}

func fetchFail(ctx context.Context, urlStr string, opts *fetch.Options) (*fetch.Result, error) {
	return nil, &fetch.Error{URL: urlStr, Message: "connection refused"}
}

func newTestFinder(client llm.Client, fetchFn FetchFunc) *Finder {
	d := dispatch.New(3, 5*time.Second, zerolog.Nop())
	return NewFinder(client, d, fetchFn, nil, false, time.Second, zerolog.Nop())
}

func TestFindCourses(t *testing.T) {
	client := &fakeClient{response: `[
		{"title": "Spark Fundamentals", "platform": "Coursera", "rating": "4.7", "url": "https://coursera.org/learn/spark"},
		{"title": "Big Data Basics", "url": "https://coursera.org/learn/bigdata"}
	]`}
	f := newTestFinder(client, fetchOK)

	found, err := f.FindCourses(context.Background(), types.NewSkillSet([]string{"Spark", "AWS"}))
	require.NoError(t, err)

	// 2 skills x 2 platforms, 2 courses per page.
	assert.Len(t, found, 8)
	assert.Equal(t, 4, client.calls)

	skills := map[string]bool{}
	for _, c := range found {
		assert.NotEmpty(t, c.Title)
		assert.NotEmpty(t, c.Skill)
		assert.NotEmpty(t, c.SourceTaskID)
		assert.NotEmpty(t, c.Platform, "platform should be backfilled from the URL")
		skills[c.Skill] = true
	}
	assert.True(t, skills["Spark"])
	assert.True(t, skills["AWS"])
}

func TestFindCoursesLimitsFanout(t *testing.T) {
	client := &fakeClient{response: `[{"title": "A Course", "url": "https://example.com/c"}]`}
	f := newTestFinder(client, fetchOK)

	_, err := f.FindCourses(context.Background(), types.NewSkillSet([]string{"Spark", "AWS", "Kafka", "Airflow"}))
	require.NoError(t, err)

	// Only the first two skills are searched.
	assert.Equal(t, 4, client.calls)
}

func TestFindCoursesEmptySkills(t *testing.T) {
	client := &fakeClient{}
	f := newTestFinder(client, fetchOK)

	found, err := f.FindCourses(context.Background(), types.SkillSet{})
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
	assert.Zero(t, client.calls)
}

func TestFindCoursesFetchFailuresDegrade(t *testing.T) {
	client := &fakeClient{response: `[{"title": "A Course"}]`}
	f := newTestFinder(client, fetchFail)

	found, err := f.FindCourses(context.Background(), types.NewSkillSet([]string{"Spark"}))
	require.NoError(t, err, "page failures must not fail the search")
	assert.Empty(t, found)
	assert.Zero(t, client.calls, "failed fetches must not reach the LLM")
}

func TestFindCoursesInvalidExtractionDiscarded(t *testing.T) {
	client := &fakeClient{response: `{"unexpected": "shape"}`}
	f := newTestFinder(client, fetchOK)

	found, err := f.FindCourses(context.Background(), types.NewSkillSet([]string{"Spark"}))
	require.NoError(t, err)
	assert.Empty(t, found, "schema-invalid extractions are dropped")
}

func TestFindCoursesLLMErrorDegrades(t *testing.T) {
	client := &fakeClient{err: errors.New("model overloaded")}
	f := newTestFinder(client, fetchOK)

	found, err := f.FindCourses(context.Background(), types.NewSkillSet([]string{"Spark"}))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestFindCoursesDeadCallerContext(t *testing.T) {
	client := &fakeClient{response: `[]`}
	f := newTestFinder(client, fetchOK)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FindCourses(ctx, types.NewSkillSet([]string{"Spark"}))
	require.Error(t, err)
	assert.ErrorIs(t, err, dispatch.ErrBridge)
}

func TestValidateCourseList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid list", `[{"title": "Go Basics", "url": "https://example.com"}]`, false},
		{"empty list", `[]`, false},
		{"missing title", `[{"url": "https://example.com"}]`, true},
		{"empty title", `[{"title": ""}]`, true},
		{"not an array", `{"title": "Go Basics"}`, true},
		{"wrong item type", `["just a string"]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCourseList(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateCourseList() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmorgan/careerpath-coach/internal/llm"
)

type fakeClient struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeClient) Close() error { return nil }

func TestExtractSkills(t *testing.T) {
	client := &fakeClient{response: `["Python", "SQL", "python", "  Docker  "]`}
	ext := NewExtractor(client, zerolog.Nop())

	skills, err := ext.ExtractSkills(context.Background(), "Experienced data analyst. Python, SQL, Docker.")
	require.NoError(t, err)

	assert.Equal(t, []string{"Python", "SQL", "Docker"}, skills.Strings())
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Python, SQL, Docker")
}

func TestExtractSkillsEmptyResume(t *testing.T) {
	client := &fakeClient{response: `["should not be called"]`}
	ext := NewExtractor(client, zerolog.Nop())

	skills, err := ext.ExtractSkills(context.Background(), "   \n\t ")
	require.NoError(t, err)
	assert.Empty(t, skills)
	assert.Empty(t, client.prompts, "empty resume must not reach the LLM")
}

func TestExtractSkillsFencedResponse(t *testing.T) {
	client := &fakeClient{response: "```json\n[\"Go\", \"Kubernetes\"]\n```"}
	ext := NewExtractor(client, zerolog.Nop())

	skills, err := ext.ExtractSkills(context.Background(), "Go and Kubernetes engineer")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Kubernetes"}, skills.Strings())
}

func TestExtractSkillsLLMError(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}
	ext := NewExtractor(client, zerolog.Nop())

	_, err := ext.ExtractSkills(context.Background(), "some resume")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skill extraction failed")
}

func TestExtractSkillsMalformedResponse(t *testing.T) {
	client := &fakeClient{response: "I could not find any skills."}
	ext := NewExtractor(client, zerolog.Nop())

	_, err := ext.ExtractSkills(context.Background(), "some resume")
	require.Error(t, err)
}

func TestExtractSkillsTruncatesLongResume(t *testing.T) {
	long := make([]byte, maxResumeChars+5000)
	for i := range long {
		long[i] = 'a'
	}
	client := &fakeClient{response: `["Python"]`}
	ext := NewExtractor(client, zerolog.Nop())

	_, err := ext.ExtractSkills(context.Background(), string(long))
	require.NoError(t, err)
	require.Len(t, client.prompts, 1)
	assert.Less(t, len(client.prompts[0]), maxResumeChars+1000)
}

// Package extraction identifies the technical skills present in a resume.
package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jmorgan/careerpath-coach/internal/llm"
	"github.com/jmorgan/careerpath-coach/internal/types"
)

// maxResumeChars bounds how much resume text goes into the prompt.
// Longer resumes are truncated; skills past this point are overwhelmingly
// repeats of what appears earlier.
const maxResumeChars = 20000

// Extractor pulls technical skills out of raw resume text via the LLM.
type Extractor struct {
	client llm.Client
	log    zerolog.Logger
}

// NewExtractor creates an Extractor backed by the given LLM client.
func NewExtractor(client llm.Client, log zerolog.Logger) *Extractor {
	return &Extractor{
		client: client,
		log:    log.With().Str("component", "extraction").Logger(),
	}
}

// ExtractSkills returns the technical skills found in the resume text,
// normalized and deduplicated. An empty resume yields an empty set without
// an LLM call.
func (e *Extractor) ExtractSkills(ctx context.Context, resumeText string) (types.SkillSet, error) {
	resumeText = strings.TrimSpace(resumeText)
	if resumeText == "" {
		return types.SkillSet{}, nil
	}
	if len(resumeText) > maxResumeChars {
		resumeText = resumeText[:maxResumeChars]
	}

	prompt := buildExtractionPrompt(resumeText)

	response, err := e.client.GenerateJSON(ctx, prompt, llm.TierLite)
	if err != nil {
		return nil, fmt.Errorf("skill extraction failed: %w", err)
	}

	names, err := llm.ParseStringArray(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extracted skills: %w", err)
	}

	skills := types.NewSkillSet(names)
	e.log.Debug().Int("count", len(skills)).Msg("extracted resume skills")
	return skills, nil
}

func buildExtractionPrompt(resumeText string) string {
	return fmt.Sprintf(`Analyze this resume text and extract ONLY technical skills. Return a JSON array of skill strings.

Resume Text:
%s

Extract:
- Programming languages (Python, Java, JavaScript, etc.)
- Tools and frameworks (React, Django, TensorFlow, etc.)
- Databases (MySQL, MongoDB, PostgreSQL, etc.)
- Cloud platforms (AWS, Azure, GCP, etc.)
- Other technical skills

Do NOT include soft skills, job titles, or company names.

Return ONLY a JSON array like: ["Python", "React", "AWS", "Docker"]`, resumeText)
}

// Package ranking evaluates course candidates against missing skills and
// selects the final recommendations.
package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jmorgan/careerpath-coach/internal/llm"
	"github.com/jmorgan/careerpath-coach/internal/types"
)

// TopN is how many courses the final recommendation keeps.
const TopN = 5

// fallbackEvaluation marks a recommendation assembled without the LLM.
const fallbackEvaluation = "Evaluation completed"

// Ranker evaluates candidates with the LLM and degrades to a simple
// truncation when the evaluation cannot be used.
type Ranker struct {
	client llm.Client
	log    zerolog.Logger
}

// NewRanker creates a Ranker backed by the given LLM client.
func NewRanker(client llm.Client, log zerolog.Logger) *Ranker {
	return &Ranker{
		client: client,
		log:    log.With().Str("component", "ranking").Logger(),
	}
}

// Evaluate ranks the candidates for the missing skills. Courses without a
// URL are flagged and excluded from ranking. Evaluation never fails the
// request: any LLM or parse problem falls back to the first eligible
// candidates in discovery order.
func (r *Ranker) Evaluate(ctx context.Context, missing types.SkillSet, candidates []types.Course) types.Recommendation {
	eligible := types.FlagMissingURLs(candidates)
	if len(eligible) == 0 {
		return types.Recommendation{Courses: []types.Course{}, Evaluation: fallbackEvaluation}
	}

	fallback := types.Recommendation{
		Courses:    truncate(eligible, TopN),
		Evaluation: fallbackEvaluation,
	}

	prompt, err := buildEvaluationPrompt(missing, eligible)
	if err != nil {
		r.log.Warn().Err(err).Msg("could not build evaluation prompt, using fallback")
		return fallback
	}

	response, err := r.client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		r.log.Warn().Err(err).Msg("evaluation call failed, using fallback")
		return fallback
	}

	rec, err := parseEvaluation(response)
	if err != nil {
		r.log.Warn().Err(err).Msg("could not parse evaluation, using fallback")
		return fallback
	}
	return rec
}

// SelectTop resolves the final course list: the evaluator's top_courses,
// then its courses, then the raw candidates, then nothing. The result
// never exceeds n entries and is never nil.
func SelectTop(rec types.Recommendation, raw []types.Course, n int) []types.Course {
	if len(rec.TopCourses) > 0 {
		return truncate(rec.TopCourses, n)
	}
	if len(rec.Courses) > 0 {
		return truncate(rec.Courses, n)
	}
	if len(raw) > 0 {
		return truncate(raw, n)
	}
	return []types.Course{}
}

func truncate(courses []types.Course, n int) []types.Course {
	if len(courses) > n {
		courses = courses[:n]
	}
	out := make([]types.Course, len(courses))
	copy(out, courses)
	return out
}

func buildEvaluationPrompt(missing types.SkillSet, candidates []types.Course) (string, error) {
	courseJSON, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Evaluate these courses for learning these skills: %s

Courses to evaluate:
%s

Evaluate based on:
- Relevance to the missing skills
- Course quality indicators
- Difficulty appropriateness
- Practical applicability
- Value for money

Return ONLY JSON in this shape, with at most %d courses ranked best first, each keeping its original url:
{"top_courses": [{"title": "...", "description": "...", "platform": "...", "rating": "...", "price": "...", "duration": "...", "instructor": "...", "url": "..."}], "evaluation": "one short paragraph explaining the ranking"}`,
		strings.Join(missing.Strings(), ", "), courseJSON, TopN), nil
}

// parseEvaluation accepts the evaluator's object shape or a bare course
// array.
func parseEvaluation(response string) (types.Recommendation, error) {
	cleaned := llm.CleanJSONBlock(response)

	var rec types.Recommendation
	if err := json.Unmarshal([]byte(cleaned), &rec); err == nil && !rec.IsEmpty() {
		rec.TopCourses = truncate(rec.TopCourses, TopN)
		rec.Courses = truncate(rec.Courses, TopN)
		return rec, nil
	}

	var list []types.Course
	if err := json.Unmarshal([]byte(cleaned), &list); err == nil && len(list) > 0 {
		return types.Recommendation{TopCourses: truncate(list, TopN)}, nil
	}

	return types.Recommendation{}, fmt.Errorf("evaluation response has no usable courses")
}

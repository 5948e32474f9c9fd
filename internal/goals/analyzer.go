// Package goals derives the ideal skill profile for a career goal by
// sampling live job postings and consolidating them with the LLM.
package goals

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jmorgan/careerpath-coach/internal/fetch"
	"github.com/jmorgan/careerpath-coach/internal/llm"
	"github.com/jmorgan/careerpath-coach/internal/types"
)

const (
	// topSkillCount is how many skills the consolidation keeps, ranked
	// by how often they appear across postings.
	topSkillCount = 6

	// maxPageChars bounds how much of each job-board page goes into the
	// prompt.
	maxPageChars = 8000
)

// FetchFunc retrieves a page. Injectable so tests avoid the network.
type FetchFunc func(ctx context.Context, urlStr string, opts *fetch.Options) (*fetch.Result, error)

// Analyzer produces the ideal skill set for a career goal.
type Analyzer struct {
	client  llm.Client
	fetchFn FetchFunc
	opts    *fetch.Options
	log     zerolog.Logger
}

// NewAnalyzer creates an Analyzer. A nil fetchFn uses the real HTTP fetcher.
func NewAnalyzer(client llm.Client, fetchFn FetchFunc, opts *fetch.Options, log zerolog.Logger) *Analyzer {
	if fetchFn == nil {
		fetchFn = fetch.URL
	}
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	return &Analyzer{
		client:  client,
		fetchFn: fetchFn,
		opts:    opts,
		log:     log.With().Str("component", "goals").Logger(),
	}
}

// IdealSkills returns the top skills the job market demands for the goal.
// Job-board fetches are best effort; when every fetch fails the LLM falls
// back to its own knowledge of the role. The result is never empty on
// success.
func (a *Analyzer) IdealSkills(ctx context.Context, careerGoal string) (types.SkillSet, error) {
	careerGoal = strings.TrimSpace(careerGoal)
	if careerGoal == "" {
		return nil, fmt.Errorf("career goal is empty")
	}

	postings := a.collectPostings(ctx, careerGoal)
	prompt := buildGoalPrompt(careerGoal, postings)

	response, err := a.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("career goal analysis failed: %w", err)
	}

	names, err := llm.ParseStringArray(response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse goal skills: %w", err)
	}

	skills := types.NewSkillSet(names)
	if len(skills) == 0 {
		return nil, fmt.Errorf("no skills identified for career goal %q", careerGoal)
	}

	a.log.Debug().
		Str("career_goal", careerGoal).
		Int("postings", len(postings)).
		Int("skills", len(skills)).
		Msg("analyzed career goal")
	return skills, nil
}

// collectPostings fetches each job-board search page and extracts its main
// text. Failures are logged and skipped.
func (a *Analyzer) collectPostings(ctx context.Context, careerGoal string) []string {
	var postings []string
	for _, u := range fetch.JobSearchURLs(careerGoal) {
		result, err := a.fetchFn(ctx, u, a.opts)
		if err != nil {
			a.log.Warn().Err(err).Str("url", u).Msg("job board fetch failed, skipping")
			continue
		}
		text, err := fetch.ExtractMainText(result.HTML, nil)
		if err != nil || strings.TrimSpace(text) == "" {
			a.log.Warn().Str("url", u).Msg("job board page yielded no text, skipping")
			continue
		}
		if len(text) > maxPageChars {
			text = text[:maxPageChars]
		}
		postings = append(postings, text)
	}
	return postings
}

func buildGoalPrompt(careerGoal string, postings []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `Research job market requirements for the career goal: %q

Identify ONLY technical skills: programming languages, tools, frameworks, databases, cloud platforms.
Do NOT include soft skills, certifications, or degree requirements.

`, careerGoal)

	if len(postings) > 0 {
		b.WriteString("Here is text scraped from current job search result pages. Count how often each skill is demanded:\n\n")
		for i, p := range postings {
			fmt.Fprintf(&b, "--- Job board page %d ---\n%s\n\n", i+1, p)
		}
	} else {
		b.WriteString("No job postings could be retrieved. Use your knowledge of what this role currently requires.\n\n")
	}

	fmt.Fprintf(&b, `Return the top %d skills with the highest demand, most demanded first.
Return ONLY a JSON array of skill strings like: ["Python", "SQL", "Spark"]`, topSkillCount)
	return b.String()
}

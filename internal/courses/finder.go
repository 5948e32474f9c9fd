// Package courses discovers course candidates for missing skills by
// crawling course platforms concurrently and extracting structured listings
// with the LLM.
package courses

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jmorgan/careerpath-coach/internal/dispatch"
	"github.com/jmorgan/careerpath-coach/internal/fetch"
	"github.com/jmorgan/careerpath-coach/internal/llm"
	"github.com/jmorgan/careerpath-coach/internal/types"
)

const (
	// maxSkills limits how many missing skills get a course search.
	maxSkills = 2
	// maxPlatformsPerSkill limits how many platforms each skill is
	// searched on.
	maxPlatformsPerSkill = 2
	// maxContentChars bounds how much page text goes into one extraction
	// prompt.
	maxContentChars = 12000
)

// FetchFunc retrieves a page. Injectable so tests avoid the network.
type FetchFunc func(ctx context.Context, urlStr string, opts *fetch.Options) (*fetch.Result, error)

// Finder turns a set of missing skills into course candidates.
type Finder struct {
	client      llm.Client
	dispatcher  *dispatch.Dispatcher
	fetchFn     FetchFunc
	opts        *fetch.Options
	useBrowser  bool
	pageTimeout time.Duration
	log         zerolog.Logger
}

// NewFinder creates a Finder. A nil fetchFn uses the real HTTP fetcher.
func NewFinder(client llm.Client, dispatcher *dispatch.Dispatcher, fetchFn FetchFunc, opts *fetch.Options, useBrowser bool, pageTimeout time.Duration, log zerolog.Logger) *Finder {
	if fetchFn == nil {
		fetchFn = fetch.URL
	}
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	if pageTimeout <= 0 {
		pageTimeout = fetch.DefaultTimeout
	}
	return &Finder{
		client:      client,
		dispatcher:  dispatcher,
		fetchFn:     fetchFn,
		opts:        opts,
		useBrowser:  useBrowser,
		pageTimeout: pageTimeout,
		log:         log.With().Str("component", "courses").Logger(),
	}
}

// FindCourses searches course platforms for the missing skills and returns
// every candidate extracted. Individual page failures and timeouts degrade
// to fewer candidates; the error is non-nil only when the batch itself
// could not run.
func (f *Finder) FindCourses(ctx context.Context, missing types.SkillSet) ([]types.Course, error) {
	tasks := f.buildTasks(missing)
	if len(tasks) == 0 {
		return []types.Course{}, nil
	}

	results, err := f.dispatcher.RunBatch(ctx, tasks)
	if err != nil {
		return nil, fmt.Errorf("course search batch failed: %w", err)
	}

	var found []types.Course
	for _, r := range results {
		switch r.Status {
		case dispatch.StatusSuccess:
			var batch []types.Course
			if err := json.Unmarshal(r.Payload, &batch); err != nil {
				f.log.Warn().Err(err).Str("task_id", r.TaskID).Msg("discarding undecodable course payload")
				continue
			}
			found = append(found, batch...)
		case dispatch.StatusTimedOut:
			f.log.Warn().Str("url", r.URL).Str("skill", r.Skill).Msg("course page timed out")
		default:
			f.log.Warn().Str("url", r.URL).Str("skill", r.Skill).Str("error", r.Err).Msg("course page failed")
		}
	}
	if found == nil {
		found = []types.Course{}
	}

	f.log.Info().
		Int("tasks", len(tasks)).
		Int("courses", len(found)).
		Msg("course search complete")
	return found, nil
}

// buildTasks fans the top missing skills out across course platforms, one
// task per (skill, platform) page.
func (f *Finder) buildTasks(missing types.SkillSet) []dispatch.Task {
	var tasks []dispatch.Task
	for _, skill := range missing.Strings() {
		if len(tasks) >= maxSkills*maxPlatformsPerSkill {
			break
		}
		urls := fetch.CourseSearchURLs(skill)
		if len(urls) > maxPlatformsPerSkill {
			urls = urls[:maxPlatformsPerSkill]
		}
		for _, u := range urls {
			id := uuid.NewString()
			tasks = append(tasks, dispatch.Task{
				ID:      id,
				URL:     u,
				Skill:   skill,
				Timeout: f.pageTimeout,
				Run: func(ctx context.Context) (json.RawMessage, error) {
					return f.crawlPage(ctx, id, u, skill)
				},
			})
		}
	}
	return tasks
}

// crawlPage fetches one platform search page and extracts its course
// listings. It runs inside the dispatcher under the task timeout.
func (f *Finder) crawlPage(ctx context.Context, taskID, pageURL, skill string) (json.RawMessage, error) {
	platform := fetch.DetectPlatform(pageURL)

	text, err := f.pageText(ctx, pageURL, platform)
	if err != nil {
		return nil, err
	}
	if len(text) > maxContentChars {
		text = text[:maxContentChars]
	}

	prompt := buildExtractionPrompt(skill, platform.DisplayName(), text)
	response, err := f.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, fmt.Errorf("course extraction failed: %w", err)
	}

	cleaned := llm.CleanJSONBlock(response)
	if err := validateCourseList(cleaned); err != nil {
		return nil, err
	}

	var found []types.Course
	if err := json.Unmarshal([]byte(cleaned), &found); err != nil {
		return nil, fmt.Errorf("failed to decode course list: %w", err)
	}

	for i := range found {
		found[i].Skill = skill
		found[i].SourceTaskID = taskID
		if found[i].Platform == "" {
			found[i].Platform = platform.DisplayName()
		}
	}

	payload, err := json.Marshal(found)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// pageText fetches the page over HTTP and falls back to the headless
// browser when the static HTML carries too little content.
func (f *Finder) pageText(ctx context.Context, pageURL string, platform fetch.Platform) (string, error) {
	selectors := fetch.PlatformContentSelectors(platform)

	result, err := f.fetchFn(ctx, pageURL, f.opts)
	if err != nil {
		return "", err
	}

	text, err := fetch.ExtractMainText(result.HTML, selectors)
	if err != nil {
		return "", err
	}

	if f.useBrowser && fetch.ShouldUseBrowser(text) {
		f.log.Debug().Str("url", pageURL).Msg("static HTML too thin, rendering with browser")
		html, berr := fetch.WithBrowser(ctx, pageURL, f.pageTimeout, f.log)
		if berr != nil {
			f.log.Warn().Err(berr).Str("url", pageURL).Msg("browser render failed, using static HTML")
		} else if rendered, rerr := fetch.ExtractMainText(html, selectors); rerr == nil && len(rendered) > len(text) {
			text = rendered
		}
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no content extracted from %s", pageURL)
	}
	return text, nil
}

func buildExtractionPrompt(skill, platformName, pageText string) string {
	return fmt.Sprintf(`Extract course listings for learning %q from this %s search results page.

Page text:
%s

For each course found, capture:
- title (required)
- description
- platform
- rating
- price
- duration
- instructor
- url (the full course URL, very important)

Return ONLY a JSON array of course objects like:
[{"title": "...", "description": "...", "platform": "%s", "rating": "...", "price": "...", "duration": "...", "instructor": "...", "url": "https://..."}]

Return [] if the page contains no courses.`, skill, platformName, pageText, platformName)
}

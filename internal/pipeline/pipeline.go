// Package pipeline orchestrates a full analysis run: resume skills, ideal
// skills, the gap between them, course discovery, and the final ranked
// recommendation, with a cache short-circuiting the expensive half.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jmorgan/careerpath-coach/internal/cache"
	"github.com/jmorgan/careerpath-coach/internal/ranking"
	"github.com/jmorgan/careerpath-coach/internal/types"
)

// SkillExtractor pulls technical skills from resume text.
type SkillExtractor interface {
	ExtractSkills(ctx context.Context, resumeText string) (types.SkillSet, error)
}

// GoalAnalyzer produces the ideal skill profile for a career goal.
type GoalAnalyzer interface {
	IdealSkills(ctx context.Context, careerGoal string) (types.SkillSet, error)
}

// CourseFinder discovers course candidates for missing skills.
type CourseFinder interface {
	FindCourses(ctx context.Context, missing types.SkillSet) ([]types.Course, error)
}

// Ranker evaluates candidates into a recommendation.
type Ranker interface {
	Evaluate(ctx context.Context, missing types.SkillSet, candidates []types.Course) types.Recommendation
}

// Request is one analysis job.
type Request struct {
	CareerGoal string
	ResumeText string
}

// Response is the analysis result returned to clients.
type Response struct {
	CareerGoal    string         `json:"career_goal"`
	StudentSkills []string       `json:"student_skills"`
	IdealSkills   []string       `json:"ideal_skills"`
	MissingSkills []string       `json:"missing_skills"`
	CoursesFound  int            `json:"courses_found"`
	TopCourses    []types.Course `json:"top_5_courses"`
	Evaluation    string         `json:"evaluation,omitempty"`
	CacheHit      bool           `json:"cache_hit"`
}

// Orchestrator wires the stages together around the cache.
type Orchestrator struct {
	extractor SkillExtractor
	analyzer  GoalAnalyzer
	finder    CourseFinder
	ranker    Ranker
	cache     *cache.Manager
	log       zerolog.Logger
}

// NewOrchestrator assembles the pipeline.
func NewOrchestrator(extractor SkillExtractor, analyzer GoalAnalyzer, finder CourseFinder, ranker Ranker, cacheMgr *cache.Manager, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		analyzer:  analyzer,
		finder:    finder,
		ranker:    ranker,
		cache:     cacheMgr,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes the full analysis. Only goal analysis is fatal: without an
// ideal profile there is no gap to close. Extraction failures degrade to an
// empty student profile, discovery and ranking failures degrade to fewer or
// unranked courses.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Response, error) {
	if req.CareerGoal == "" {
		return nil, fmt.Errorf("career goal is required")
	}

	student, err := o.extractor.ExtractSkills(ctx, req.ResumeText)
	if err != nil {
		o.log.Warn().Err(err).Msg("skill extraction failed, treating resume as empty")
		student = types.SkillSet{}
	}

	ideal, err := o.analyzer.IdealSkills(ctx, req.CareerGoal)
	if err != nil {
		return nil, fmt.Errorf("cannot analyze career goal: %w", err)
	}

	missing := ideal.Diff(student)

	resp := &Response{
		CareerGoal:    req.CareerGoal,
		StudentSkills: student.Strings(),
		IdealSkills:   ideal.Strings(),
		MissingSkills: missing.Strings(),
		TopCourses:    []types.Course{},
	}

	if len(missing) == 0 {
		o.log.Info().Str("career_goal", req.CareerGoal).Msg("no skill gap, skipping course search")
		return resp, nil
	}

	if entry, ok := o.cache.Get(ctx, req.CareerGoal, missing); ok {
		resp.CacheHit = true
		resp.CoursesFound = len(entry.Courses)
		rec := types.Recommendation{}
		if entry.Recommendation != nil {
			rec = *entry.Recommendation
		}
		resp.TopCourses = ranking.SelectTop(rec, entry.Courses, ranking.TopN)
		resp.Evaluation = rec.Evaluation
		o.log.Info().Str("career_goal", req.CareerGoal).Msg("served from cache")
		return resp, nil
	}

	found, err := o.finder.FindCourses(ctx, missing)
	if err != nil {
		o.log.Warn().Err(err).Msg("course search failed, continuing without candidates")
		found = []types.Course{}
	}
	resp.CoursesFound = len(found)

	rec := o.ranker.Evaluate(ctx, missing, found)
	resp.TopCourses = ranking.SelectTop(rec, found, ranking.TopN)
	resp.Evaluation = rec.Evaluation

	if len(found) > 0 {
		o.cache.Put(ctx, req.CareerGoal, missing, found, &rec)
	}

	o.log.Info().
		Str("career_goal", req.CareerGoal).
		Int("student_skills", len(student)).
		Int("ideal_skills", len(ideal)).
		Int("missing_skills", len(missing)).
		Int("courses_found", len(found)).
		Int("top_courses", len(resp.TopCourses)).
		Msg("analysis complete")
	return resp, nil
}

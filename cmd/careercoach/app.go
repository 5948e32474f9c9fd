package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmorgan/careerpath-coach/internal/cache"
	"github.com/jmorgan/careerpath-coach/internal/config"
	"github.com/jmorgan/careerpath-coach/internal/courses"
	"github.com/jmorgan/careerpath-coach/internal/dispatch"
	"github.com/jmorgan/careerpath-coach/internal/extraction"
	"github.com/jmorgan/careerpath-coach/internal/fetch"
	"github.com/jmorgan/careerpath-coach/internal/goals"
	"github.com/jmorgan/careerpath-coach/internal/llm"
	"github.com/jmorgan/careerpath-coach/internal/pipeline"
	"github.com/jmorgan/careerpath-coach/internal/ranking"
)

// newLogger builds the process logger. Verbose enables debug level.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// app bundles everything a command needs to run analyses.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	cache     *cache.Manager
	pipeline  *pipeline.Orchestrator
	llmClient llm.Client
}

// buildApp assembles the pipeline from the environment configuration.
func buildApp(ctx context.Context) (*app, error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	log := newLogger(cfg.Verbose)

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	cacheMgr := cache.Open(ctx, cfg.RedisAddr(), cfg.CacheTTL, log)

	fetchOpts := &fetch.Options{
		Timeout:   cfg.PageTimeout,
		UserAgent: fetch.DefaultUserAgent,
	}
	dispatcher := dispatch.New(cfg.FetchConcurrency, cfg.FetchDeadline, log)

	orchestrator := pipeline.NewOrchestrator(
		extraction.NewExtractor(client, log),
		goals.NewAnalyzer(client, nil, fetchOpts, log),
		courses.NewFinder(client, dispatcher, nil, fetchOpts, cfg.UseBrowser, cfg.PageTimeout, log),
		ranking.NewRanker(client, log),
		cacheMgr,
		log,
	)

	return &app{
		cfg:       cfg,
		log:       log,
		cache:     cacheMgr,
		pipeline:  orchestrator,
		llmClient: client,
	}, nil
}

// close releases the app's external connections.
func (a *app) close() {
	if a.llmClient != nil {
		if err := a.llmClient.Close(); err != nil {
			a.log.Warn().Err(err).Msg("error closing LLM client")
		}
	}
}

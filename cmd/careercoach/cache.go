package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmorgan/careerpath-coach/internal/cache"
	"github.com/jmorgan/careerpath-coach/internal/config"
)

var cacheClearGoal string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the recommendation cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the active cache backend and entry count",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cached recommendations, optionally scoped to one career goal",
	RunE:  runCacheClear,
}

func init() {
	cacheClearCmd.Flags().StringVar(&cacheClearGoal, "goal", "", "Only clear entries for this career goal")
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

// openCache connects to the configured cache backend. Cache commands do not
// need the LLM, so no API key is required here.
func openCache(ctx context.Context) (*cache.Manager, error) {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := newLogger(cfg.Verbose)
	return cache.Open(ctx, cfg.RedisAddr(), cfg.CacheTTL, log), nil
}

func runCacheStats(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	mgr, err := openCache(ctx)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(mgr.Stats(ctx), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runCacheClear(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	mgr, err := openCache(ctx)
	if err != nil {
		return err
	}

	cleared := mgr.Invalidate(ctx, cacheClearGoal)
	scope := "all career goals"
	if cacheClearGoal != "" {
		scope = fmt.Sprintf("career goal %q", cacheClearGoal)
	}
	fmt.Printf("Cleared %d cached entries for %s (%s backend)\n", cleared, scope, mgr.Kind())
	return nil
}

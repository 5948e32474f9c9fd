package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmorgan/careerpath-coach/internal/pipeline"
)

var (
	analyzeGoal   string
	analyzeResume string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis from the CLI",
	Long:  `Analyze a resume against a career goal and print the course recommendations as JSON.`,
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeGoal, "goal", "", "Career goal, e.g. \"Data Scientist\" (required)")
	analyzeCmd.Flags().StringVar(&analyzeResume, "resume", "", "Path to a resume text file (required)")
	_ = analyzeCmd.MarkFlagRequired("goal")
	_ = analyzeCmd.MarkFlagRequired("resume")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	resumeText, err := os.ReadFile(analyzeResume)
	if err != nil {
		return fmt.Errorf("failed to read resume file: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	resp, err := a.pipeline.Run(ctx, pipeline.Request{
		CareerGoal: analyzeGoal,
		ResumeText: string(resumeText),
	})
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

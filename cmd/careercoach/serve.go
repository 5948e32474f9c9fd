package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmorgan/careerpath-coach/internal/server"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for resume analysis and cache management.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (overrides PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	a, err := buildApp(context.Background())
	if err != nil {
		return err
	}
	defer a.close()

	port := a.cfg.Port
	if servePort != "" {
		port = servePort
	}

	srv := server.New(server.Config{Port: port}, a.pipeline, a.cache, a.log)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

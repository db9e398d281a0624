// Package main provides the skill-match server binary.
// The server exposes HTTP endpoints for skill-based project
// recommendations and effectiveness analytics.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillmatch/skill-match/internal/analytics"
	"github.com/skillmatch/skill-match/internal/config"
	"github.com/skillmatch/skill-match/internal/pkg/logger"
	"github.com/skillmatch/skill-match/internal/server"
	"github.com/skillmatch/skill-match/internal/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "skill-match",
		Short: "Skill Match - skill-based project recommendation service",
		Long: `Skill Match scores users against recruiting projects, ranks the
results with diversity-aware reranking, and reports on recommendation
effectiveness over time.

Examples:
  skill-match serve                      # Start with defaults
  skill-match serve --port 9090          # Custom HTTP port
  skill-match evaluate --timeframe "7 days"
  skill-match version`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	serveCmd.Flags().String("host", "", "server host (overrides config)")
	serveCmd.Flags().Int("port", 0, "HTTP port (overrides config)")
	rootCmd.AddCommand(serveCmd)

	evaluateCmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Print recommendation effectiveness for a timeframe",
		RunE:  runEvaluate,
	}
	evaluateCmd.Flags().String("timeframe", "", `analytics window, e.g. "30 days"`)
	rootCmd.AddCommand(evaluateCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("skill-match %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	appCfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if verbose {
		appCfg.Log.Level = "debug"
	}
	log := logger.New(appCfg.Log.Level, appCfg.Log.Format)

	return appCfg, log, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	appCfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		appCfg.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		appCfg.Port, _ = cmd.Flags().GetInt("port")
	}

	log.Info("Starting Skill Match",
		"version", version,
		"addr", appCfg.Address(),
		"bus", appCfg.Bus.Type,
		"cache", appCfg.Cache.Type,
	)

	srvCfg := server.DefaultConfig()
	srvCfg.Host = appCfg.Host
	srvCfg.Port = appCfg.Port
	srvCfg.Version = version

	srv, err := server.New(srvCfg, appCfg, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigCh:
		log.Info("Shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	return srv.Stop(ctx)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	appCfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	timeframe, _ := cmd.Flags().GetString("timeframe")

	st, err := newEvaluationStore(appCfg, log)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	analyzer := analytics.NewAnalyzer(st, analytics.Config{
		DefaultWindow: appCfg.Analytics.DefaultWindow,
		MockFallback:  appCfg.Analytics.MockFallback,
	}, log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recMatrix, err := analyzer.RecommendationMatrix(ctx, timeframe)
	if err != nil {
		return fmt.Errorf("recommendation matrix: %w", err)
	}
	assessMatrix, err := analyzer.AssessmentMatrix(ctx, timeframe)
	if err != nil {
		return fmt.Errorf("assessment matrix: %w", err)
	}
	report, err := analyzer.Effectiveness(ctx)
	if err != nil {
		return fmt.Errorf("effectiveness report: %w", err)
	}

	out := map[string]any{
		"recommendation_matrix": recMatrix,
		"recommendation_metrics": analytics.ComputeMetrics(recMatrix),
		"assessment_matrix":     assessMatrix,
		"assessment_metrics":    analytics.ComputeMetrics(assessMatrix),
		"effectiveness":         report,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newEvaluationStore(appCfg *config.Config, log *logger.Logger) (store.Store, error) {
	if appCfg.Database.URL == "" || appCfg.Database.URL == "memory" {
		return store.NewMemoryStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return store.NewPostgresStore(ctx, store.PostgresConfig{
		URL:          appCfg.Database.URL,
		MaxConns:     appCfg.Database.MaxConns,
		QueryTimeout: time.Duration(appCfg.Database.QueryTimeout) * time.Second,
	}, log)
}

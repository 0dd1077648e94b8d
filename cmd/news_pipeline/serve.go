package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/news-pipeline/internal/config"
	"github.com/jonathan/news-pipeline/internal/db"
	"github.com/jonathan/news-pipeline/internal/logging"
	"github.com/jonathan/news-pipeline/internal/pipeline"
	"github.com/jonathan/news-pipeline/internal/server"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP trigger server",
	Long:  `Start an HTTP server whose POST /run endpoint executes the configured pipeline.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (defaults to server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	jwtConfig, err := config.NewJWTConfig(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to create JWT config: %w", err)
	}
	if jwtConfig == nil {
		logger.Warn("JWT_SECRET not set, trigger endpoints are unauthenticated")
	}

	var store server.RunStore
	if cfg.Database.URL != "" {
		database, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		store = database
	}

	run := func(ctx context.Context, req server.RunRequest, onProgress pipeline.ProgressCallback) (*pipeline.Summary, error) {
		return pipeline.RunConfigured(ctx, cfg, pipeline.BuildOptions{Mode: req.Mode, OnProgress: onProgress}, logger)
	}

	srv, err := server.New(server.Config{Port: cfg.Server.Port, JWT: jwtConfig}, run, store, logging.Component(logger, "server"))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("serving pipeline trigger", zap.Int("port", cfg.Server.Port))
	return srv.Start(ctx)
}

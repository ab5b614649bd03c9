// Package app initializes and orchestrates the main components of the
// review service. It wires together the configuration, storage, GitHub
// client, analyzer, dispatcher, and HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/manoj645/pr-review-agent/internal/config"
	"github.com/manoj645/pr-review-agent/internal/db"
	gh "github.com/manoj645/pr-review-agent/internal/github"
	"github.com/manoj645/pr-review-agent/internal/jobs"
	"github.com/manoj645/pr-review-agent/internal/llm"
	"github.com/manoj645/pr-review-agent/internal/server"
	"github.com/manoj645/pr-review-agent/internal/storage"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	logger     *slog.Logger
	dispatcher *jobs.Dispatcher
	closeDB    func()
}

// NewApp sets up the application with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing review service",
		"model", cfg.OpenAIModel,
		"max_workers", cfg.MaxWorkers,
		"context_lines", cfg.ContextLines)

	dbConn, closeDB, err := db.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := dbConn.RunMigrations(); err != nil {
		closeDB()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	store := storage.NewStore(dbConn.DB)
	githubClient := gh.NewTokenClient(ctx, cfg.GitHubToken, cfg.ContextLines, cfg.MaxFileSize, logger)

	prompts, err := llm.NewPromptManager()
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	analyzer, err := llm.NewAnalyzer(cfg, prompts, logger)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	rules := llm.NewRuleSource(cfg.CustomRulesPath, logger)

	reviewJob := jobs.NewReviewJob(cfg, githubClient, analyzer, rules, store, logger)
	dispatcher := jobs.NewDispatcher(reviewJob, cfg.MaxWorkers, logger)

	router := server.NewRouter(cfg, dispatcher, store, rules, logger)
	srv := server.NewServer(ctx, cfg, router, logger)

	return &App{
		cfg:        cfg,
		server:     srv,
		logger:     logger,
		dispatcher: dispatcher,
		closeDB:    closeDB,
	}, nil
}

// Start runs the HTTP server and blocks until shutdown or a fatal error.
func (a *App) Start() error {
	a.logger.Info("starting review service", "port", a.cfg.ServerPort)
	return a.server.Start()
}

// Stop gracefully shuts down the server, drains in-flight review runs, and
// closes the database connection.
func (a *App) Stop() error {
	a.logger.Info("shutting down review service")

	err := a.server.Stop()
	a.dispatcher.Stop()
	a.closeDB()

	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

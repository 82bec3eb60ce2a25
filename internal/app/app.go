// Package app assembles the service's collaborators from configuration so
// the API server and the CLI wire things the same way.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/socialwatch/searchagent/internal/clients/news"
	"github.com/socialwatch/searchagent/internal/clients/ollama"
	"github.com/socialwatch/searchagent/internal/config"
	"github.com/socialwatch/searchagent/internal/database"
	"github.com/socialwatch/searchagent/internal/domain"
	"github.com/socialwatch/searchagent/internal/domain/history"
	"github.com/socialwatch/searchagent/internal/keywords"
	"github.com/socialwatch/searchagent/internal/metrics"
	"github.com/socialwatch/searchagent/internal/prompts"
	"github.com/socialwatch/searchagent/internal/storage/memory"
	"github.com/socialwatch/searchagent/internal/storage/sqlite"
)

// App holds the wired domain and the resources that must be released.
type App struct {
	Domain   domain.Container
	DB       *database.DB
	Recorder metrics.Recorder

	logger *slog.Logger
}

// New builds the application. A nil recorder means no metrics.
func New(ctx context.Context, cfg config.Config, logr *slog.Logger, recorder metrics.Recorder) (*App, error) {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}

	set, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		return nil, err
	}

	generator, err := ollama.New(ollama.Options{
		URL:            cfg.OllamaURL,
		Model:          cfg.OllamaModel,
		Timeout:        cfg.OllamaTimeout,
		RetryAttempts:  cfg.OllamaRetryAttempts,
		RetryDelay:     cfg.OllamaRetryDelay,
		MaxConcurrency: cfg.OllamaMaxConcurrency,
		Logger:         logr,
	})
	if err != nil {
		return nil, err
	}

	mode, err := keywords.ParseMode(cfg.BooleanMode)
	if err != nil {
		return nil, err
	}

	a := &App{Recorder: recorder, logger: logr}
	repo, err := a.historyRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	container, err := domain.New(domain.Options{
		News:        news.New(cfg.NewsAPIURL, cfg.NewsAPITimeout),
		Generator:   generator,
		Prompts:     set,
		HistoryRepo: repo,
		Metrics:     recorder,
		Logger:      logr,
		DefaultMode: mode,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Domain = container
	return a, nil
}

func (a *App) historyRepository(ctx context.Context, cfg config.Config) (history.Repository, error) {
	switch cfg.DataBackend {
	case "memory":
		a.logger.Info("using in-memory query history (DATA_BACKEND=memory)")
		return memory.NewHistoryRepository(), nil
	case "sqlite":
		db, err := OpenDatabase(ctx, cfg, a.logger)
		if err != nil {
			return nil, err
		}
		a.DB = db
		a.logger.Info("using sqlite query history (DATA_BACKEND=sqlite)", "dsn", cfg.DatabaseURL)
		return sqlite.NewHistoryRepository(db.DB), nil
	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

// OpenDatabase connects to the configured SQLite store and applies pending
// migrations.
func OpenDatabase(ctx context.Context, cfg config.Config, logr *slog.Logger) (*database.DB, error) {
	db, err := database.Connect(ctx, database.Options{
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		Logger:          logr,
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	migrator := database.NewSQLMigrator(db.DB, database.MigrationsFS(), database.MigrationsDir, logr)
	if err := db.RunMigrations(ctx, migrator); err != nil {
		var result *multierror.Error
		result = multierror.Append(result, fmt.Errorf("database migrations: %w", err))
		if cerr := db.Close(); cerr != nil {
			result = multierror.Append(result, cerr)
		}
		return nil, result.ErrorOrNil()
	}
	return db, nil
}

// Close releases the database, if one was opened.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

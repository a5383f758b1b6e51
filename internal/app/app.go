package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dinesh-raya/news-intel/internal/api"
	"github.com/Dinesh-raya/news-intel/internal/config"
	"github.com/Dinesh-raya/news-intel/internal/infrastructure/feed"
	"github.com/Dinesh-raya/news-intel/internal/infrastructure/htmltext"
	"github.com/Dinesh-raya/news-intel/internal/infrastructure/llm"
	"github.com/Dinesh-raya/news-intel/internal/infrastructure/report"
	"github.com/Dinesh-raya/news-intel/internal/infrastructure/storage"
	"github.com/Dinesh-raya/news-intel/internal/logging"
	"github.com/Dinesh-raya/news-intel/internal/tokenopt"
	"github.com/Dinesh-raya/news-intel/internal/usecase"
)

// Application wires configuration to adapters and the pipeline.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New builds a runnable application instance. Configuration problems such as
// a missing credential in strict mode fail here, before any stage runs.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	store := storage.NewPostgresStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("prepare schema: %w", err)
	}

	optimizer := tokenopt.New(
		baseLogger.With("component", "tokenopt"),
		cfg.Optimizer.Enabled,
		cfg.Optimizer.Threshold,
	)

	generator, err := llm.NewOpenRouterClient(cfg.LLM, optimizer, baseLogger.With("component", "llm"))
	if err != nil {
		return nil, fmt.Errorf("build generation gateway: %w", err)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Store:       store,
		Generator:   generator,
		Source:      feed.NewRSSSource(nil),
		Sanitizer:   htmltext.NewGoquerySanitizer(),
		Reporter:    report.NewMarkdownReporter(cfg.Reports.Dir, baseLogger.With("component", "report")),
		SourcesPath: cfg.Sources.Path,
		Logger:      baseLogger,
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}, nil
}

// RunOnce performs a single pipeline execution.
func (a *Application) RunOnce(ctx context.Context) error {
	_, err := a.pipeline.Run(ctx, time.Now())
	return err
}

// Serve starts the HTTP trigger surface and blocks.
func (a *Application) Serve() error {
	gin.SetMode(a.cfg.Server.Mode)
	r := gin.Default()

	handler := api.NewPipelineHandler(a.pipeline, a.logger.With("component", "api"))
	handler.Register(r)

	a.logger.Info("server listening", "port", a.cfg.Server.Port)
	return r.Run(fmt.Sprintf(":%d", a.cfg.Server.Port))
}

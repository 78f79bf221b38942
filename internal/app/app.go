package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"ChannelDigest/internal/config"
	"ChannelDigest/internal/infrastructure/llm"
	"ChannelDigest/internal/infrastructure/scheduler"
	"ChannelDigest/internal/infrastructure/scraper"
	"ChannelDigest/internal/infrastructure/storage"
	"ChannelDigest/internal/infrastructure/telegram"
	"ChannelDigest/internal/infrastructure/telegraph"
	"ChannelDigest/internal/logging"
	"ChannelDigest/internal/pipeline"
	"ChannelDigest/internal/source"
)

// Application wires configuration to the pipeline and its collaborators.
type Application struct {
	cfg         config.Config
	db          *sql.DB
	coordinator *pipeline.Coordinator
	scheduler   *pipeline.Scheduler
}

// New builds a runnable application instance. Configuration problems fail
// here, before any pipeline I/O happens.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := storage.NewPostgresStore(db)

	registry := source.NewRegistry()
	registry.Register(scraper.NewPreviewScraper(
		&http.Client{Timeout: 20 * time.Second},
		cfg.Collector.PreviewBaseURL,
	))
	registry.Register(source.NewStoredFallback(store))

	newsSource := source.NewStrategySource(registry, cfg.Collector.MaxPostsPerChannel, baseLogger.With("component", "source"))

	collector := pipeline.NewCollector(
		newsSource,
		store,
		cfg.EnabledChannels(),
		cfg.Collector,
		baseLogger.With("component", "collector"),
	)

	summarizer := pipeline.NewSummarizer(
		store,
		llm.NewClaudeClient(cfg.Claude),
		cfg.CategoryTaxonomy(),
		cfg.Prompts.Summarization.Set(),
		baseLogger.With("component", "summarizer"),
	)

	publisher := pipeline.NewPublisher(
		store,
		telegraph.NewPublisher(cfg.Telegraph),
		telegram.NewPublisher(cfg.Telegram),
		cfg.CategoryTaxonomy(),
		cfg.Telegraph.AuthorName,
		cfg.Telegram.TargetChannelID,
		baseLogger.With("component", "publisher"),
	)

	coordinator := pipeline.NewCoordinator(collector, summarizer, publisher, baseLogger.With("component", "coordinator"))

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	sched := pipeline.NewScheduler(driver, coordinator, baseLogger.With("component", "scheduler"))

	return &Application{
		cfg:         cfg,
		db:          db,
		coordinator: coordinator,
		scheduler:   sched,
	}, nil
}

// RunOnce performs a single pipeline execution.
func (a *Application) RunOnce(ctx context.Context) (pipeline.RunReport, error) {
	return a.coordinator.Run(ctx)
}

// Start begins scheduled execution and blocks until the context is done.
func (a *Application) Start(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return a.scheduler.Stop(context.Background())
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

package app

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"GlobalPulse/internal/catalog"
	"GlobalPulse/internal/config"
	"GlobalPulse/internal/infrastructure/feed"
	"GlobalPulse/internal/infrastructure/nlp"
	"GlobalPulse/internal/infrastructure/scheduler"
	"GlobalPulse/internal/infrastructure/storage"
	"GlobalPulse/internal/infrastructure/telegram"
	"GlobalPulse/internal/logging"
	"GlobalPulse/internal/ports"
	"GlobalPulse/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration. The
// scrape schedule and the backlog drain loop run as two independent
// polling workers over the same store.
type Application struct {
	cfg      config.Config
	store    *storage.PostgresStore
	schedule *usecase.Schedule
	drainer  *usecase.Drainer
	logger   *slog.Logger
}

// New builds a runnable application instance around an open database.
func New(cfg config.Config, baseLogger *slog.Logger, db *sql.DB) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store := storage.NewPostgresStore(db)
	gate := usecase.NewGate(store)

	feedCatalog := catalog.New(cfg.Scraper.FeedsFile, baseLogger.With("component", "catalog"))
	fetcher := feed.NewFetcher(
		&http.Client{Timeout: cfg.Scraper.FetchTimeout()},
		cfg.Scraper.UserAgent,
		baseLogger.With("component", "fetcher"),
	)

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	scraper := usecase.NewScraper(usecase.ScraperDeps{
		Catalog:  feedCatalog,
		Source:   fetcher,
		Gate:     gate,
		Notifier: notifier,
		Workers:  cfg.Scraper.FetchWorkers,
		Logger:   baseLogger.With("component", "scraper"),
	})
	schedule := usecase.NewSchedule(scheduler.NewIntervalScheduler(cfg.Scraper.Interval()), scraper)

	// one long-lived model capability instance, passed explicitly
	model := nlp.NewClient(cfg.Inference, baseLogger.With("component", "inference"))

	drainer := usecase.NewDrainer(usecase.DrainerDeps{
		Store:        store,
		Classifier:   model,
		Extractor:    model,
		BatchSize:    cfg.Drain.BatchSize,
		PollInterval: cfg.Drain.PollInterval(),
		Logger:       baseLogger.With("component", "drainer"),
	})

	return &Application{
		cfg:      cfg,
		store:    store,
		schedule: schedule,
		drainer:  drainer,
		logger:   baseLogger.With("component", "app"),
	}
}

// Run creates the schema, then drives both loops until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.ensureSchema(ctx); err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.drainer.Start(ctx)
	})

	group.Go(func() error {
		if err := a.schedule.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		_ = a.schedule.Stop(context.Background())
		return ctx.Err()
	})

	return group.Wait()
}

// ensureSchema retries table creation with backoff so a database that is
// still starting up does not kill the process.
func (a *Application) ensureSchema(ctx context.Context) error {
	backoff := time.Second
	for {
		err := a.store.EnsureSchema(ctx)
		if err == nil {
			return nil
		}

		a.logger.Warn("schema setup failed, retrying", "backoff", backoff, "error", err)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
		if backoff > 30*time.Second {
			backoff = 30 * time.Second
		}
	}
}

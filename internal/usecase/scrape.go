package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"GlobalPulse/internal/domain"
	"GlobalPulse/internal/ports"
)

// CatalogLoader resolves the category to feed-URL mapping for one pass.
type CatalogLoader interface {
	Load() map[string][]string
}

// ScraperDeps wires the driven adapters into the scrape coordinator.
type ScraperDeps struct {
	Catalog  CatalogLoader
	Source   ports.FeedSource
	Gate     *Gate
	Notifier ports.Notifier
	Workers  int
	Logger   *slog.Logger
}

// Scraper drives the catalog through the fetch unit and the dedup gate.
// Every feed and every entry is processed in isolation: no single failure
// aborts a pass.
type Scraper struct {
	catalog  CatalogLoader
	source   ports.FeedSource
	gate     *Gate
	notifier ports.Notifier
	workers  int
	logger   *slog.Logger
}

// NewScraper constructs the coordinator; Workers defaults to 8.
func NewScraper(deps ScraperDeps) *Scraper {
	workers := deps.Workers
	if workers <= 0 {
		workers = 8
	}
	return &Scraper{
		catalog:  deps.Catalog,
		source:   deps.Source,
		gate:     deps.Gate,
		notifier: deps.Notifier,
		workers:  workers,
		logger:   deps.Logger,
	}
}

// RunOnce loads the catalog, fetches every feed with bounded parallelism,
// and returns the genuinely new Articles from this pass. Duplicates are
// absorbed silently; feed and entry failures are logged and skipped.
func (s *Scraper) RunOnce(ctx context.Context) []domain.Article {
	feeds := s.catalog.Load()

	var (
		mu    sync.Mutex
		fresh []domain.Article
	)

	var group errgroup.Group
	group.SetLimit(s.workers)

	for category, urls := range feeds {
		for _, url := range urls {
			category, url := category, url
			group.Go(func() error {
				inserted := s.processFeed(ctx, category, url)
				if len(inserted) == 0 {
					return nil
				}

				mu.Lock()
				fresh = append(fresh, inserted...)
				mu.Unlock()
				return nil
			})
		}
	}

	_ = group.Wait()

	s.info("scrape pass done", "feeds", countURLs(feeds), "new_articles", len(fresh))
	s.notify(ctx, fresh)

	return fresh
}

func (s *Scraper) processFeed(ctx context.Context, category, url string) []domain.Article {
	items, err := s.source.Fetch(ctx, url)
	if err != nil {
		s.error("fetch feed failed", "category", category, "url", url, "error", err)
		return nil
	}

	var inserted []domain.Article
	for _, item := range items {
		article, err := s.gate.Insert(ctx, category, item)
		if err != nil {
			s.error("insert entry failed", "category", category, "url", url, "link", item.Link, "error", err)
			continue
		}
		if article == nil {
			continue
		}
		inserted = append(inserted, *article)
	}

	return inserted
}

func (s *Scraper) notify(ctx context.Context, fresh []domain.Article) {
	if s.notifier == nil || len(fresh) == 0 {
		return
	}

	if err := s.notifier.PublishDigest(ctx, buildDigest(fresh)); err != nil {
		s.error("publish digest failed", "error", err)
	}
}

func buildDigest(articles []domain.Article) string {
	digest := fmt.Sprintf("%d new articles\n\n", len(articles))
	for _, article := range articles {
		title := article.Title
		if title == "" {
			title = article.URL
		}
		digest += fmt.Sprintf("- [%s] %s\n%s\n", article.Source, title, article.URL)
	}
	return digest
}

func countURLs(feeds map[string][]string) int {
	total := 0
	for _, urls := range feeds {
		total += len(urls)
	}
	return total
}

func (s *Scraper) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Scraper) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

// Schedule bridges the interval driver with the scrape coordinator.
type Schedule struct {
	driver  ports.Scheduler
	scraper *Scraper
}

// NewSchedule returns a helper to start/stop the recurring scrape job.
func NewSchedule(driver ports.Scheduler, scraper *Scraper) *Schedule {
	return &Schedule{driver: driver, scraper: scraper}
}

// Start registers the scrape pass with the driver. A fully failed pass
// still completes; the schedule keeps running regardless of results.
func (s *Schedule) Start(ctx context.Context) error {
	if s.driver == nil || s.scraper == nil {
		return nil
	}

	return s.driver.Start(ctx, func(time.Time) {
		s.scraper.RunOnce(ctx)
	})
}

// Stop tears down the underlying driver.
func (s *Schedule) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}

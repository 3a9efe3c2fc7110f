package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"GlobalPulse/internal/domain"
	"GlobalPulse/internal/ports"
)

const (
	initialPingBackoff = time.Second
	maxPingBackoff     = 30 * time.Second
)

// DrainerDeps wires the store and model capabilities into the drain loop.
type DrainerDeps struct {
	Store        ports.ArticleStore
	Classifier   ports.Classifier
	Extractor    ports.Extractor
	BatchSize    int
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Drainer continuously converges the backlog of Articles lacking a
// SentimentResult. Row existence in the annotation tables is the single
// source of truth for what has been processed: no sentiment row means
// unlabeled, no entity rows means unextracted.
type Drainer struct {
	store        ports.ArticleStore
	classifier   ports.Classifier
	extractor    ports.Extractor
	batchSize    int
	pollInterval time.Duration
	pingBackoff  time.Duration
	logger       *slog.Logger
}

// NewDrainer constructs the loop; BatchSize defaults to 25 and
// PollInterval to 10 seconds.
func NewDrainer(deps DrainerDeps) *Drainer {
	batchSize := deps.BatchSize
	if batchSize <= 0 {
		batchSize = 25
	}
	pollInterval := deps.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	return &Drainer{
		store:        deps.Store,
		classifier:   deps.Classifier,
		extractor:    deps.Extractor,
		batchSize:    batchSize,
		pollInterval: pollInterval,
		pingBackoff:  initialPingBackoff,
		logger:       deps.Logger,
	}
}

// Start blocks until the store answers a liveness check, then drains
// batches until the context is cancelled. An empty backlog sleeps the poll
// interval and retries; the loop never terminates on its own.
func (d *Drainer) Start(ctx context.Context) error {
	if err := d.awaitStore(ctx); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		processed := d.DrainOnce(ctx)
		if processed > 0 {
			continue
		}

		if err := sleep(ctx, d.pollInterval); err != nil {
			return err
		}
	}
}

// DrainOnce selects one bounded batch of unlabeled Articles and enriches
// them concurrently, bounded by the batch size. It returns the number of
// Articles observed; failures inside the batch are logged and isolated.
func (d *Drainer) DrainOnce(ctx context.Context) int {
	articles, err := d.store.FindUnlabeled(ctx, d.batchSize)
	if err != nil {
		d.error("select backlog failed", "error", err)
		return 0
	}
	if len(articles) == 0 {
		return 0
	}

	d.info("draining batch", "articles", len(articles))

	var group errgroup.Group
	group.SetLimit(d.batchSize)

	for _, article := range articles {
		article := article
		group.Go(func() error {
			d.enrich(ctx, article)
			return nil
		})
	}

	_ = group.Wait()

	return len(articles)
}

// enrich runs the per-article annotation step: classify once, then,
// independently, extract once. Each commit is an atomic unit; a failure
// in one Article never halts the batch.
func (d *Drainer) enrich(ctx context.Context, article domain.Article) {
	labeled, err := d.store.HasSentiment(ctx, article.ID)
	if err != nil {
		d.error("sentiment check failed", "article_id", article.ID, "error", err)
		return
	}

	if !labeled {
		// model failures come back as the error label and are persisted
		// like any other result, so a poison-pill Article can never block
		// the backlog
		sentiment := d.classifier.Classify(ctx, classifyInput(article))
		if err := d.store.InsertSentiment(ctx, article.ID, sentiment); err != nil {
			d.error("persist sentiment failed", "article_id", article.ID, "error", err)
			return
		}
	}

	extracted, err := d.store.HasEntities(ctx, article.ID)
	if err != nil {
		d.error("entity check failed", "article_id", article.ID, "error", err)
		return
	}
	if extracted {
		return
	}

	entities := d.extractor.Extract(ctx, article.Title)
	if entities.Empty() {
		return
	}

	if err := d.store.InsertEntities(ctx, article.ID, entities); err != nil {
		d.error("persist entities failed", "article_id", article.ID, "error", err)
	}
}

// classifyInput prefers the article body and falls back to the title.
func classifyInput(article domain.Article) string {
	if strings.TrimSpace(article.Content) != "" {
		return article.Content
	}
	return article.Title
}

// awaitStore retry-polls the liveness check with growing backoff so that a
// store that is still starting up does not kill the loop.
func (d *Drainer) awaitStore(ctx context.Context) error {
	backoff := d.pingBackoff
	for {
		err := d.store.Ping(ctx)
		if err == nil {
			return nil
		}

		d.warn("store unavailable, retrying", "backoff", backoff, "error", err)
		if err := sleep(ctx, backoff); err != nil {
			return err
		}

		backoff *= 2
		if backoff > maxPingBackoff {
			backoff = maxPingBackoff
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Drainer) info(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *Drainer) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}

func (d *Drainer) error(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Error(msg, args...)
	}
}

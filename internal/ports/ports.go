package ports

import (
	"context"
	"time"

	"GlobalPulse/internal/domain"
)

// FeedSource retrieves and parses one feed URL into candidate entries.
// A failure covers only that URL; callers isolate it from sibling feeds.
type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]domain.FeedItem, error)
}

// ArticleStore persists articles and their annotations. All writes commit
// per item so a partial batch is durable up to the failure point.
type ArticleStore interface {
	FindByURL(ctx context.Context, url string) (*domain.Article, error)
	Insert(ctx context.Context, article domain.Article) (*domain.Article, error)
	FindUnlabeled(ctx context.Context, limit int) ([]domain.Article, error)
	HasSentiment(ctx context.Context, articleID int64) (bool, error)
	InsertSentiment(ctx context.Context, articleID int64, sentiment domain.Sentiment) error
	HasEntities(ctx context.Context, articleID int64) (bool, error)
	InsertEntities(ctx context.Context, articleID int64, entities domain.EntityMap) error
	Ping(ctx context.Context) error
}

// ErrDuplicateURL is returned by ArticleStore.Insert when a concurrent
// insert already committed the same URL.
type ErrDuplicateURL struct {
	URL string
}

func (e ErrDuplicateURL) Error() string {
	return "article url already exists: " + e.URL
}

// Analytics is the read-only query surface consumed by the aggregation
// layer. Rows behind it are append-only and never rewritten.
type Analytics interface {
	ArticlesSince(ctx context.Context, minDate time.Time) ([]domain.Article, error)
	SentimentSummary(ctx context.Context, minDate time.Time) (domain.SentimentSummary, error)
	EntityCounts(ctx context.Context, entityType domain.EntityType, minDate time.Time, limit int) ([]domain.EntityCount, error)
}

// Classifier scores text sentiment. Implementations never return an error:
// model failures surface as the error label with score zero.
type Classifier interface {
	Classify(ctx context.Context, text string) domain.Sentiment
}

// Extractor pulls typed named entities out of text. Model failures surface
// as an empty map, never as an error.
type Extractor interface {
	Extract(ctx context.Context, text string) domain.EntityMap
}

// Scheduler drives a recurring job at a fixed interval.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Notifier publishes a human-readable digest of a scrape pass to an
// external channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

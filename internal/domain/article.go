package domain

import "time"

// Article is one ingested news item. The URL is the dedup key: exactly one
// Article may exist per URL for the lifetime of the store.
type Article struct {
	ID          int64
	Title       string
	URL         string
	Source      string
	Content     string
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// FeedItem is a single entry parsed out of an RSS/Atom document, before it
// passes the dedup gate.
type FeedItem struct {
	Title     string
	Link      string
	Summary   string
	Published *time.Time
}

// SentimentLabel enumerates classifier outcomes. The neutral label covers
// both genuinely neutral text and scores inside the indecision band of a
// binary model; error marks articles whose classification failed and must
// not be retried.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentError    SentimentLabel = "error"
)

// Sentiment is the classifier output for one text.
type Sentiment struct {
	Label SentimentLabel
	Score float64
}

// SentimentResult is persisted 1:1 per Article. Its presence marks the
// Article as processed for sentiment.
type SentimentResult struct {
	ID        int64
	ArticleID int64
	Label     SentimentLabel
	Score     float64
	CreatedAt time.Time
}

// EntityType enumerates recognized entity categories.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
	EntityProduct      EntityType = "product"
)

// EntityTypes lists all recognized types in a stable order.
var EntityTypes = []EntityType{
	EntityPerson,
	EntityOrganization,
	EntityLocation,
	EntityProduct,
}

// EntityMap groups normalized entity surface strings by type. Slices are
// deduplicated and sorted; order carries no meaning beyond determinism.
type EntityMap map[EntityType][]string

// Empty reports whether no entities were extracted for any type.
func (m EntityMap) Empty() bool {
	for _, values := range m {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// ArticleEntity is one persisted entity mention, owned many-to-one by an
// Article. Presence of any rows marks the Article as processed for
// extraction.
type ArticleEntity struct {
	ID        int64
	ArticleID int64
	Entity    string
	Type      EntityType
	CreatedAt time.Time
}

// SentimentSummary aggregates persisted sentiment labels for the read-only
// analytics interface.
type SentimentSummary struct {
	Total    int64
	Positive int64
	Negative int64
	Neutral  int64
	Error    int64
}

// EntityCount pairs an entity surface string with its mention count.
type EntityCount struct {
	Entity string
	Count  int64
}

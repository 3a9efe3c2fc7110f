package usecase

import (
	"context"
	"errors"
	"fmt"

	"GlobalPulse/internal/domain"
	"GlobalPulse/internal/ports"
)

// Gate decides uniqueness and commits new Articles. The URL is the dedup
// key: re-seen entries across polling cycles are silently absorbed here.
type Gate struct {
	store ports.ArticleStore
}

// NewGate wires the article store.
func NewGate(store ports.ArticleStore) *Gate {
	return &Gate{store: store}
}

// Insert persists the entry as a new Article with source set to the feed's
// category. A duplicate URL, whether found up front or committed by a
// concurrent insert, returns (nil, nil) without touching the existing row.
func (g *Gate) Insert(ctx context.Context, category string, item domain.FeedItem) (*domain.Article, error) {
	existing, err := g.store.FindByURL(ctx, item.Link)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", item.Link, err)
	}
	if existing != nil {
		return nil, nil
	}

	article, err := g.store.Insert(ctx, domain.Article{
		Title:       item.Title,
		URL:         item.Link,
		Source:      category,
		Content:     item.Summary,
		PublishedAt: item.Published,
	})
	if err != nil {
		var dup ports.ErrDuplicateURL
		if errors.As(err, &dup) {
			return nil, nil
		}
		return nil, fmt.Errorf("insert %s: %w", item.Link, err)
	}

	return article, nil
}

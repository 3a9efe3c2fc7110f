package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"GlobalPulse/internal/domain"
	"GlobalPulse/internal/ports"
)

type fakeCatalog map[string][]string

func (f fakeCatalog) Load() map[string][]string { return f }

type fakeSource struct {
	mu    sync.Mutex
	items map[string][]domain.FeedItem
	errs  map[string]error
	calls map[string]int
}

var _ ports.FeedSource = (*fakeSource)(nil)

func newFakeSource() *fakeSource {
	return &fakeSource{
		items: map[string][]domain.FeedItem{},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeSource) Fetch(_ context.Context, url string) ([]domain.FeedItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[url]++
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return f.items[url], nil
}

// fakeStore is an in-memory ports.ArticleStore safe for concurrent use.
type fakeStore struct {
	mu               sync.Mutex
	nextID           int64
	articles         map[string]*domain.Article
	sentiments       map[int64][]domain.Sentiment
	entities         map[int64]domain.EntityMap
	pingFailures     int
	insertErrURLs    map[string]error
	sentimentErrIDs  map[int64]error
	hiddenFromLookup map[string]bool
}

var _ ports.ArticleStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		articles:         map[string]*domain.Article{},
		sentiments:       map[int64][]domain.Sentiment{},
		entities:         map[int64]domain.EntityMap{},
		insertErrURLs:    map[string]error{},
		sentimentErrIDs:  map[int64]error{},
		hiddenFromLookup: map[string]bool{},
	}
}

func (f *fakeStore) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pingFailures > 0 {
		f.pingFailures--
		return fmt.Errorf("store still starting")
	}
	return nil
}

func (f *fakeStore) FindByURL(_ context.Context, url string) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.hiddenFromLookup[url] {
		return nil, nil
	}
	if article, ok := f.articles[url]; ok {
		copied := *article
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeStore) Insert(_ context.Context, article domain.Article) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.insertErrURLs[article.URL]; err != nil {
		return nil, err
	}
	if _, ok := f.articles[article.URL]; ok {
		return nil, ports.ErrDuplicateURL{URL: article.URL}
	}

	f.nextID++
	article.ID = f.nextID
	article.CreatedAt = time.Now().UTC()
	f.articles[article.URL] = &article

	copied := article
	return &copied, nil
}

func (f *fakeStore) FindUnlabeled(_ context.Context, limit int) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var backlog []domain.Article
	for _, article := range f.articles {
		if len(f.sentiments[article.ID]) == 0 {
			backlog = append(backlog, *article)
		}
	}

	sort.Slice(backlog, func(i, j int) bool { return backlog[i].ID < backlog[j].ID })
	if len(backlog) > limit {
		backlog = backlog[:limit]
	}
	return backlog, nil
}

func (f *fakeStore) HasSentiment(_ context.Context, articleID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.sentiments[articleID]) > 0, nil
}

func (f *fakeStore) InsertSentiment(_ context.Context, articleID int64, sentiment domain.Sentiment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.sentimentErrIDs[articleID]; err != nil {
		return err
	}
	f.sentiments[articleID] = append(f.sentiments[articleID], sentiment)
	return nil
}

func (f *fakeStore) HasEntities(_ context.Context, articleID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return !f.entities[articleID].Empty(), nil
}

func (f *fakeStore) InsertEntities(_ context.Context, articleID int64, entities domain.EntityMap) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entities[articleID] = entities
	return nil
}

func (f *fakeStore) article(url string) *domain.Article {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.articles[url]
}

func (f *fakeStore) sentimentRows(articleID int64) []domain.Sentiment {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.sentiments[articleID]
}

type stubClassifier struct {
	mu      sync.Mutex
	calls   int
	byInput map[string]domain.Sentiment
}

var _ ports.Classifier = (*stubClassifier)(nil)

func (s *stubClassifier) Classify(_ context.Context, text string) domain.Sentiment {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.byInput != nil {
		if sentiment, ok := s.byInput[text]; ok {
			return sentiment
		}
	}
	if text == "" {
		return domain.Sentiment{Label: domain.SentimentNeutral, Score: 0.0}
	}
	return domain.Sentiment{Label: domain.SentimentPositive, Score: 0.9}
}

func (s *stubClassifier) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubExtractor struct {
	mu      sync.Mutex
	calls   int
	byInput map[string]domain.EntityMap
}

var _ ports.Extractor = (*stubExtractor)(nil)

func (s *stubExtractor) Extract(_ context.Context, text string) domain.EntityMap {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.byInput != nil {
		if entities, ok := s.byInput[text]; ok {
			return entities
		}
	}
	return domain.EntityMap{}
}

func (s *stubExtractor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"GlobalPulse/internal/domain"
	"GlobalPulse/internal/ports"
)

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresStore persists articles and annotations in Postgres. Annotation
// rows are append-only: their presence is the single source of truth for
// the drain loop's processed markers.
type PostgresStore struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*PostgresStore)(nil)
var _ ports.Analytics = (*PostgresStore)(nil)

// Open connects to Postgres and tunes the connection pool.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables on startup when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(500),
			url VARCHAR(500) NOT NULL UNIQUE,
			source VARCHAR(200),
			published_at TIMESTAMPTZ,
			content TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS sentiment_results (
			id BIGSERIAL PRIMARY KEY,
			article_id BIGINT NOT NULL REFERENCES articles(id),
			label VARCHAR(50) NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS article_entities (
			id BIGSERIAL PRIMARY KEY,
			article_id BIGINT NOT NULL REFERENCES articles(id),
			entity VARCHAR(300) NOT NULL,
			entity_type VARCHAR(50) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sentiment_article ON sentiment_results(article_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entities_article ON article_entities(article_id)`,
	}

	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}

// Ping reports store liveness for the drain loop's startup check.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FindByURL returns the Article with the exact URL, or nil without error
// when absent.
func (s *PostgresStore) FindByURL(ctx context.Context, url string) (*domain.Article, error) {
	query, args, err := articleSelect().Where(sq.Eq{"url": url}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by url: %w", err)
	}

	return article, nil
}

// Insert persists a new Article and returns it with its assigned identifier
// and creation timestamp. A concurrent insert of the same URL surfaces as
// ports.ErrDuplicateURL.
func (s *PostgresStore) Insert(ctx context.Context, article domain.Article) (*domain.Article, error) {
	query, args, err := psql.Insert("articles").
		Columns("title", "url", "source", "published_at", "content").
		Values(nullString(article.Title), article.URL, article.Source, nullTime(article.PublishedAt), article.Content).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&article.ID, &article.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, ports.ErrDuplicateURL{URL: article.URL}
		}
		return nil, fmt.Errorf("insert article: %w", err)
	}

	return &article, nil
}

// FindUnlabeled selects up to limit Articles lacking a SentimentResult, the
// drain loop's backlog.
func (s *PostgresStore) FindUnlabeled(ctx context.Context, limit int) ([]domain.Article, error) {
	query, args, err := articleSelect().
		LeftJoin("sentiment_results s ON s.article_id = articles.id").
		Where("s.id IS NULL").
		OrderBy("articles.id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return s.queryArticles(ctx, query, args...)
}

// HasSentiment reports whether the Article already carries its
// SentimentResult, the race check for overlapping drain batches.
func (s *PostgresStore) HasSentiment(ctx context.Context, articleID int64) (bool, error) {
	query, args, err := psql.Select("1").
		From("sentiment_results").
		Where(sq.Eq{"article_id": articleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has sentiment: %w", err)
	}

	return true, nil
}

// InsertSentiment persists the single SentimentResult for an Article.
func (s *PostgresStore) InsertSentiment(ctx context.Context, articleID int64, sentiment domain.Sentiment) error {
	query, args, err := psql.Insert("sentiment_results").
		Columns("article_id", "label", "score").
		Values(articleID, string(sentiment.Label), sentiment.Score).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert sentiment: %w", err)
	}

	return nil
}

// HasEntities reports whether extraction has already run for the Article.
func (s *PostgresStore) HasEntities(ctx context.Context, articleID int64) (bool, error) {
	query, args, err := psql.Select("1").
		From("article_entities").
		Where(sq.Eq{"article_id": articleID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has entities: %w", err)
	}

	return true, nil
}

// InsertEntities persists all extracted mentions for an Article in one
// transaction, so a shutdown never leaves a half-written extraction.
func (s *PostgresStore) InsertEntities(ctx context.Context, articleID int64, entities domain.EntityMap) error {
	builder := psql.Insert("article_entities").Columns("article_id", "entity", "entity_type")

	rows := 0
	for _, entityType := range domain.EntityTypes {
		for _, entity := range entities[entityType] {
			builder = builder.Values(articleID, entity, string(entityType))
			rows++
		}
	}
	if rows == 0 {
		return nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert entities: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entities: %w", err)
	}

	return nil
}

// ArticlesSince returns Articles published (or, when undated, created) at
// or after minDate.
func (s *PostgresStore) ArticlesSince(ctx context.Context, minDate time.Time) ([]domain.Article, error) {
	query, args, err := articleSelect().
		Where("COALESCE(published_at, created_at) >= ?", minDate).
		OrderBy("articles.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return s.queryArticles(ctx, query, args...)
}

// SentimentSummary aggregates persisted labels from minDate onward.
func (s *PostgresStore) SentimentSummary(ctx context.Context, minDate time.Time) (domain.SentimentSummary, error) {
	query, args, err := psql.Select("label", "COUNT(*)").
		From("sentiment_results").
		Where(sq.GtOrEq{"created_at": minDate}).
		GroupBy("label").
		ToSql()
	if err != nil {
		return domain.SentimentSummary{}, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.SentimentSummary{}, fmt.Errorf("sentiment summary: %w", err)
	}
	defer rows.Close()

	var summary domain.SentimentSummary
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return domain.SentimentSummary{}, fmt.Errorf("scan summary: %w", err)
		}

		summary.Total += count
		switch domain.SentimentLabel(label) {
		case domain.SentimentPositive:
			summary.Positive = count
		case domain.SentimentNegative:
			summary.Negative = count
		case domain.SentimentNeutral:
			summary.Neutral = count
		case domain.SentimentError:
			summary.Error = count
		}
	}
	if err := rows.Err(); err != nil {
		return domain.SentimentSummary{}, fmt.Errorf("rows iteration: %w", err)
	}

	return summary, nil
}

// EntityCounts returns the most mentioned entities of one type from
// minDate onward.
func (s *PostgresStore) EntityCounts(ctx context.Context, entityType domain.EntityType, minDate time.Time, limit int) ([]domain.EntityCount, error) {
	query, args, err := psql.Select("entity", "COUNT(*) AS mentions").
		From("article_entities").
		Where(sq.Eq{"entity_type": string(entityType)}).
		Where(sq.GtOrEq{"created_at": minDate}).
		GroupBy("entity").
		OrderBy("mentions DESC", "entity").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("entity counts: %w", err)
	}
	defer rows.Close()

	var counts []domain.EntityCount
	for rows.Next() {
		var count domain.EntityCount
		if err := rows.Scan(&count.Entity, &count.Count); err != nil {
			return nil, fmt.Errorf("scan entity count: %w", err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return counts, nil
}

func (s *PostgresStore) queryArticles(ctx context.Context, query string, args ...any) ([]domain.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return articles, nil
}

func articleSelect() sq.SelectBuilder {
	return psql.Select(
		"articles.id", "articles.title", "articles.url", "articles.source",
		"articles.published_at", "articles.content", "articles.created_at",
	).From("articles")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*domain.Article, error) {
	var (
		article     domain.Article
		title       sql.NullString
		source      sql.NullString
		content     sql.NullString
		publishedAt sql.NullTime
	)

	err := row.Scan(&article.ID, &title, &article.URL, &source, &publishedAt, &content, &article.CreatedAt)
	if err != nil {
		return nil, err
	}

	article.Title = title.String
	article.Source = source.String
	article.Content = content.String
	if publishedAt.Valid {
		stamp := publishedAt.Time
		article.PublishedAt = &stamp
	}

	return &article, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}

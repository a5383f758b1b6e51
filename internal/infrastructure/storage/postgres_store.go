package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Dinesh-raya/news-intel/internal/domain"
	"github.com/Dinesh-raya/news-intel/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{
	"id", "title", "url", "content_raw", "content_clean", "source",
	"source_type", "language", "domain", "pub_date", "ingested_at",
	"is_valid", "validation_error",
}

var narrativeColumns = []string{
	"id", "domain", "week_number", "year", "narrative_text",
	"sentiment", "action_items", "created_at",
}

// PostgresStore persists articles and narratives in Postgres.
type PostgresStore struct {
	db *sql.DB
}

var _ ports.ContentStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates tables and indexes when absent. Idempotent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			content_raw TEXT NOT NULL,
			content_clean TEXT,
			source TEXT NOT NULL,
			source_type TEXT NOT NULL,
			language TEXT NOT NULL,
			domain TEXT,
			pub_date TIMESTAMPTZ NOT NULL,
			ingested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_valid BOOLEAN NOT NULL DEFAULT TRUE,
			validation_error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_domain ON articles (domain)`,
		`CREATE TABLE IF NOT EXISTS narratives (
			id BIGSERIAL PRIMARY KEY,
			domain TEXT NOT NULL,
			week_number INT NOT NULL,
			year INT NOT NULL,
			narrative_text TEXT NOT NULL,
			sentiment TEXT NOT NULL,
			action_items TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_narratives_key
			ON narratives (domain, week_number, year)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// InsertArticle inserts unless the ID already exists; returns true on insert.
func (s *PostgresStore) InsertArticle(ctx context.Context, article domain.Article) (bool, error) {
	query, args, err := psql.Insert("articles").
		Columns(articleColumns...).
		Values(
			article.ID, article.Title, article.URL, article.ContentRaw,
			article.ContentClean, article.Source, string(article.SourceType),
			article.Language, article.Domain, article.PubDate,
			article.IngestedAt, article.IsValid, article.ValidationError,
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build insert: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// FindUncleaned returns articles whose cleaned content is still unset.
func (s *PostgresStore) FindUncleaned(ctx context.Context) ([]domain.Article, error) {
	return s.selectArticles(ctx, psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"content_clean": nil}))
}

// FindUnclassified returns valid cleaned articles without a domain label.
func (s *PostgresStore) FindUnclassified(ctx context.Context) ([]domain.Article, error) {
	return s.selectArticles(ctx, psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"domain": nil}).
		Where(sq.NotEq{"content_clean": nil}).
		Where(sq.Eq{"is_valid": true}))
}

// DistinctDomains lists domain labels present among valid articles.
func (s *PostgresStore) DistinctDomains(ctx context.Context) ([]string, error) {
	query, args, err := psql.Select("DISTINCT domain").
		From("articles").
		Where(sq.NotEq{"domain": nil}).
		Where(sq.Eq{"is_valid": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build distinct domains: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query distinct domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan domain: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

// RecentByDomain returns up to limit valid articles of one domain,
// most recent publish date first.
func (s *PostgresStore) RecentByDomain(ctx context.Context, domainLabel string, limit int) ([]domain.Article, error) {
	return s.selectArticles(ctx, psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"domain": domainLabel, "is_valid": true}).
		OrderBy("pub_date DESC").
		Limit(uint64(limit)))
}

// FindBySourceType samples up to limit valid cleaned articles of one category.
func (s *PostgresStore) FindBySourceType(ctx context.Context, sourceType domain.SourceType, limit int) ([]domain.Article, error) {
	return s.selectArticles(ctx, psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"source_type": string(sourceType), "is_valid": true}).
		Where(sq.NotEq{"content_clean": nil}).
		OrderBy("pub_date DESC").
		Limit(uint64(limit)))
}

// ApplyCleanUpdates commits one clean-stage batch in a single transaction.
func (s *PostgresStore) ApplyCleanUpdates(ctx context.Context, updates []domain.CleanUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clean batch: %w", err)
	}

	for _, u := range updates {
		query, args, buildErr := psql.Update("articles").
			Set("content_clean", u.ContentClean).
			Set("is_valid", u.IsValid).
			Set("validation_error", u.ValidationError).
			Where(sq.Eq{"id": u.ID}).
			ToSql()
		if buildErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("build clean update: %w", buildErr)
		}
		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply clean update %s: %w", u.ID, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clean batch: %w", err)
	}
	return nil
}

// ApplyDomainUpdates commits one classify-stage batch in a single transaction.
func (s *PostgresStore) ApplyDomainUpdates(ctx context.Context, updates []domain.DomainUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin domain batch: %w", err)
	}

	for _, u := range updates {
		query, args, buildErr := psql.Update("articles").
			Set("domain", u.Domain).
			Where(sq.Eq{"id": u.ID}).
			ToSql()
		if buildErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("build domain update: %w", buildErr)
		}
		if _, execErr := tx.ExecContext(ctx, query, args...); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply domain update %s: %w", u.ID, execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit domain batch: %w", err)
	}
	return nil
}

// FindNarrative returns the narrative for (domain, week, year) or nil.
func (s *PostgresStore) FindNarrative(ctx context.Context, domainLabel string, week, year int) (*domain.Narrative, error) {
	query, args, err := psql.Select(narrativeColumns...).
		From("narratives").
		Where(sq.Eq{"domain": domainLabel, "week_number": week, "year": year}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build narrative lookup: %w", err)
	}

	row := s.db.QueryRowContext(ctx, query, args...)
	narrative, err := scanNarrative(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan narrative: %w", err)
	}
	return &narrative, nil
}

// UpsertNarrative inserts or replaces the row keyed by (domain, week, year).
func (s *PostgresStore) UpsertNarrative(ctx context.Context, n domain.Narrative) error {
	query, args, err := psql.Insert("narratives").
		Columns("domain", "week_number", "year", "narrative_text", "sentiment", "action_items", "created_at").
		Values(n.Domain, n.WeekNumber, n.Year, n.NarrativeText, n.Sentiment, n.ActionItems, n.CreatedAt).
		Suffix(`ON CONFLICT (domain, week_number, year) DO UPDATE
			SET narrative_text = EXCLUDED.narrative_text,
			    sentiment = EXCLUDED.sentiment,
			    action_items = EXCLUDED.action_items,
			    created_at = EXCLUDED.created_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build narrative upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert narrative %s: %w", n.Domain, err)
	}
	return nil
}

// RecentNarratives returns up to limit narratives, newest first.
func (s *PostgresStore) RecentNarratives(ctx context.Context, limit int) ([]domain.Narrative, error) {
	query, args, err := psql.Select(narrativeColumns...).
		From("narratives").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recent narratives: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent narratives: %w", err)
	}
	defer rows.Close()

	var narratives []domain.Narrative
	for rows.Next() {
		narrative, scanErr := scanNarrative(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan narrative: %w", scanErr)
		}
		narratives = append(narratives, narrative)
	}
	return narratives, rows.Err()
}

func (s *PostgresStore) selectArticles(ctx context.Context, builder sq.SelectBuilder) ([]domain.Article, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build article query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		var (
			a               domain.Article
			contentClean    sql.NullString
			domainLabel     sql.NullString
			validationError sql.NullString
			sourceType      string
		)
		err := rows.Scan(
			&a.ID, &a.Title, &a.URL, &a.ContentRaw, &contentClean, &a.Source,
			&sourceType, &a.Language, &domainLabel, &a.PubDate, &a.IngestedAt,
			&a.IsValid, &validationError,
		)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.SourceType = domain.SourceType(sourceType)
		a.ContentClean = nullableString(contentClean)
		a.Domain = nullableString(domainLabel)
		a.ValidationError = nullableString(validationError)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNarrative(row rowScanner) (domain.Narrative, error) {
	var (
		n           domain.Narrative
		actionItems sql.NullString
	)
	err := row.Scan(
		&n.ID, &n.Domain, &n.WeekNumber, &n.Year, &n.NarrativeText,
		&n.Sentiment, &actionItems, &n.CreatedAt,
	)
	if err != nil {
		return domain.Narrative{}, err
	}
	n.ActionItems = nullableString(actionItems)
	return n, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

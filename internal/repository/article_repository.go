package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/pkg/database"
)

type articleRepository struct {
	db *database.Postgres
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *database.Postgres) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	query := `
		INSERT INTO articles (title, url, summary, author_id, submitted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	if article.UpdatedAt.IsZero() {
		article.UpdatedAt = now
	}

	err := r.db.DB.QueryRowContext(ctx, query,
		article.Title,
		article.URL,
		article.Summary,
		article.AuthorID,
		article.SubmittedBy,
		article.CreatedAt,
		article.UpdatedAt,
	).Scan(&article.ID)

	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

func (r *articleRepository) GetByID(ctx context.Context, id int64) (*domain.Article, error) {
	query := `
		SELECT id, title, url, summary, author_id, submitted_by, created_at, updated_at
		FROM articles
		WHERE id = $1
	`

	article := &domain.Article{}
	var summary sql.NullString

	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&article.ID,
		&article.Title,
		&article.URL,
		&summary,
		&article.AuthorID,
		&article.SubmittedBy,
		&article.CreatedAt,
		&article.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("article with id %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	if summary.Valid {
		article.Summary = &summary.String
	}

	return article, nil
}

func (r *articleRepository) List(ctx context.Context, limit, offset int) ([]*domain.Article, error) {
	query := `
		SELECT id, title, url, summary, author_id, submitted_by, created_at, updated_at
		FROM articles
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []*domain.Article
	for rows.Next() {
		article := &domain.Article{}
		var summary sql.NullString

		err := rows.Scan(
			&article.ID,
			&article.Title,
			&article.URL,
			&summary,
			&article.AuthorID,
			&article.SubmittedBy,
			&article.CreatedAt,
			&article.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}

		if summary.Valid {
			article.Summary = &summary.String
		}

		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return articles, nil
}

func (r *articleRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM articles WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("article with id %d not found: %w", id, ErrNotFound)
	}

	return nil
}

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

type authorRepository struct {
	db *database.Postgres
}

// NewAuthorRepository creates a new author repository
func NewAuthorRepository(db *database.Postgres) AuthorRepository {
	return &authorRepository{db: db}
}

func (r *authorRepository) Create(ctx context.Context, author *domain.Author) error {
	query := `
		INSERT INTO authors (name, bio, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	now := time.Now()
	if author.CreatedAt.IsZero() {
		author.CreatedAt = now
	}
	if author.UpdatedAt.IsZero() {
		author.UpdatedAt = now
	}

	err := r.db.DB.QueryRowContext(ctx, query,
		author.Name,
		author.Bio,
		author.CreatedBy,
		author.CreatedAt,
		author.UpdatedAt,
	).Scan(&author.ID)

	if err != nil {
		return fmt.Errorf("failed to create author: %w", err)
	}

	return nil
}

func (r *authorRepository) GetByID(ctx context.Context, id int64) (*domain.Author, error) {
	query := `
		SELECT id, name, bio, created_by, created_at, updated_at
		FROM authors
		WHERE id = $1
	`

	author := &domain.Author{}
	var bio sql.NullString

	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&author.ID,
		&author.Name,
		&bio,
		&author.CreatedBy,
		&author.CreatedAt,
		&author.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("author with id %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get author: %w", err)
	}

	if bio.Valid {
		author.Bio = &bio.String
	}

	return author, nil
}

func (r *authorRepository) List(ctx context.Context, limit, offset int) ([]*domain.Author, error) {
	query := `
		SELECT id, name, bio, created_by, created_at, updated_at
		FROM authors
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	defer rows.Close()

	var authors []*domain.Author
	for rows.Next() {
		author := &domain.Author{}
		var bio sql.NullString

		err := rows.Scan(
			&author.ID,
			&author.Name,
			&bio,
			&author.CreatedBy,
			&author.CreatedAt,
			&author.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan author: %w", err)
		}

		if bio.Valid {
			author.Bio = &bio.String
		}

		authors = append(authors, author)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate authors: %w", err)
	}

	return authors, nil
}

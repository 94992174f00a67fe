package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/pkg/database"
)

type rankingRepository struct {
	db *database.Postgres
}

// NewRankingRepository creates a new ranking repository
func NewRankingRepository(db *database.Postgres) RankingRepository {
	return &rankingRepository{db: db}
}

// Upsert writes a ranking, overwriting the score for an existing
// user/article/dimension triple.
func (r *rankingRepository) Upsert(ctx context.Context, ranking *domain.Ranking) error {
	query := `
		INSERT INTO rankings (article_id, user_id, dimension, score, is_ai, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (article_id, user_id, dimension)
		DO UPDATE SET score = EXCLUDED.score, is_ai = EXCLUDED.is_ai, updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	now := time.Now()

	err := r.db.DB.QueryRowContext(ctx, query,
		ranking.ArticleID,
		ranking.UserID,
		ranking.Dimension,
		ranking.Score,
		ranking.IsAI,
		now,
	).Scan(&ranking.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert ranking: %w", err)
	}

	return nil
}

func (r *rankingRepository) ListByArticle(ctx context.Context, articleID int64) ([]*domain.Ranking, error) {
	query := `
		SELECT id, article_id, user_id, dimension, score, is_ai, created_at, updated_at
		FROM rankings
		WHERE article_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}
	defer rows.Close()

	var rankings []*domain.Ranking
	for rows.Next() {
		ranking := &domain.Ranking{}

		err := rows.Scan(
			&ranking.ID,
			&ranking.ArticleID,
			&ranking.UserID,
			&ranking.Dimension,
			&ranking.Score,
			&ranking.IsAI,
			&ranking.CreatedAt,
			&ranking.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}

		rankings = append(rankings, ranking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rankings: %w", err)
	}

	return rankings, nil
}

// Aggregate computes per-dimension average scores for an article.
func (r *rankingRepository) Aggregate(ctx context.Context, articleID int64) (*domain.ArticleScores, error) {
	query := `
		SELECT dimension, AVG(score)::float8, COUNT(*)
		FROM rankings
		WHERE article_id = $1
		GROUP BY dimension
	`

	rows, err := r.db.DB.QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate rankings: %w", err)
	}
	defer rows.Close()

	scores := &domain.ArticleScores{
		ArticleID: articleID,
		Averages:  make(map[string]float64),
	}

	for rows.Next() {
		var dimension string
		var average float64
		var count int

		if err := rows.Scan(&dimension, &average, &count); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate: %w", err)
		}

		scores.Averages[dimension] = average
		scores.Count += count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aggregates: %w", err)
	}

	return scores, nil
}

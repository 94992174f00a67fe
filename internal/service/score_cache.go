package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/pkg/database"
)

const scoreCacheTTL = 5 * time.Minute

// ScoreCache holds aggregated article scores in Redis. A miss or a cache
// failure is never fatal; callers fall back to the database.
type ScoreCache struct {
	redis *database.Redis
}

// NewScoreCache creates a new score cache
func NewScoreCache(redis *database.Redis) *ScoreCache {
	return &ScoreCache{redis: redis}
}

func scoreCacheKey(articleID int64) string {
	return fmt.Sprintf("scores:article:%d", articleID)
}

// Get returns the cached aggregate for an article, or (nil, nil) on a miss.
func (c *ScoreCache) Get(ctx context.Context, articleID int64) (*domain.ArticleScores, error) {
	raw, err := c.redis.Client.Get(ctx, scoreCacheKey(articleID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read score cache: %w", err)
	}

	var scores domain.ArticleScores
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, fmt.Errorf("failed to decode cached scores: %w", err)
	}

	return &scores, nil
}

// Set stores the aggregate for an article.
func (c *ScoreCache) Set(ctx context.Context, scores *domain.ArticleScores) error {
	raw, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("failed to encode scores: %w", err)
	}

	if err := c.redis.Client.Set(ctx, scoreCacheKey(scores.ArticleID), raw, scoreCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to write score cache: %w", err)
	}

	return nil
}

// Invalidate drops the cached aggregate for an article.
func (c *ScoreCache) Invalidate(ctx context.Context, articleID int64) error {
	if err := c.redis.Client.Del(ctx, scoreCacheKey(articleID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate score cache: %w", err)
	}
	return nil
}

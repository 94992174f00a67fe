package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/config"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/repository"
)

// ArticleScorer produces per-dimension scores for an article. Unknown
// dimensions in the response are dropped by the caller.
type ArticleScorer interface {
	Score(ctx context.Context, article *domain.Article) (map[string]int, error)
}

// remoteArticleScorer calls the external AI scoring endpoint.
type remoteArticleScorer struct {
	scoreURL string
	apiKey   string
	client   *http.Client
}

// NewArticleScorer creates a scorer for the configured AI endpoint.
func NewArticleScorer(cfg config.AIConfig) ArticleScorer {
	return &remoteArticleScorer{
		scoreURL: cfg.ScoreURL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type scoreAPIRequest struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Summary string `json:"summary,omitempty"`
}

type scoreAPIResponse struct {
	Scores map[string]int `json:"scores"`
}

func (c *remoteArticleScorer) Score(ctx context.Context, article *domain.Article) (map[string]int, error) {
	payload := scoreAPIRequest{
		Title: article.Title,
		URL:   article.URL,
	}
	if article.Summary != nil {
		payload.Summary = *article.Summary
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scoring request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.scoreURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build scoring request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scoring request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring endpoint returned status %d", resp.StatusCode)
	}

	var result scoreAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode scoring response: %w", err)
	}

	return result.Scores, nil
}

type aiScoringService struct {
	scorer      ArticleScorer
	articleRepo repository.ArticleRepository
	rankingRepo repository.RankingRepository
	cache       *ScoreCache
	logger      *zap.Logger
}

// NewAIScoringService creates the AI pre-scoring service.
func NewAIScoringService(
	scorer ArticleScorer,
	articleRepo repository.ArticleRepository,
	rankingRepo repository.RankingRepository,
	cache *ScoreCache,
	logger *zap.Logger,
) AIScoringService {
	return &aiScoringService{
		scorer:      scorer,
		articleRepo: articleRepo,
		rankingRepo: rankingRepo,
		cache:       cache,
		logger:      logger,
	}
}

// ScoreArticle asks the AI endpoint to score an article and stores the result
// as rankings attributed to the invoking admin, flagged as AI-produced.
func (s *aiScoringService) ScoreArticle(ctx context.Context, adminID, articleID int64) ([]*domain.Ranking, error) {
	if s.scorer == nil {
		return nil, apperr.New(apperr.KindValidation, "AI scoring is not configured")
	}

	article, err := s.articleRepo.GetByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "article not found")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up article")
	}

	scores, err := s.scorer.Score(ctx, article)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "AI scoring failed")
	}

	var rankings []*domain.Ranking
	for dimension, score := range scores {
		if !domain.KnownDimension(dimension) {
			s.logger.Warn("AI returned unknown dimension",
				zap.Int64("article_id", articleID),
				zap.String("dimension", dimension))
			continue
		}
		if score < 1 || score > 10 {
			s.logger.Warn("AI returned out-of-range score",
				zap.Int64("article_id", articleID),
				zap.String("dimension", dimension),
				zap.Int("score", score))
			continue
		}

		ranking := &domain.Ranking{
			ArticleID: articleID,
			UserID:    adminID,
			Dimension: dimension,
			Score:     score,
			IsAI:      true,
		}
		if err := s.rankingRepo.Upsert(ctx, ranking); err != nil {
			return nil, apperr.Wrap(err, apperr.KindInternal, "failed to store AI ranking")
		}
		rankings = append(rankings, ranking)
	}

	if s.cache != nil && len(rankings) > 0 {
		if err := s.cache.Invalidate(ctx, articleID); err != nil {
			s.logger.Warn("score cache invalidation failed", zap.Int64("article_id", articleID), zap.Error(err))
		}
	}

	s.logger.Info("article pre-scored",
		zap.Int64("article_id", articleID),
		zap.Int("dimensions", len(rankings)))
	return rankings, nil
}

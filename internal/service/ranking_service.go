package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/events"
	"github.com/pressrank/pressrank/internal/repository"
)

type rankingService struct {
	rankingRepo repository.RankingRepository
	articleRepo repository.ArticleRepository
	cache       *ScoreCache
	publisher   *events.Publisher
	logger      *zap.Logger
}

// NewRankingService creates the ranking service. cache and publisher may be
// nil when Redis or the broker are not configured.
func NewRankingService(
	rankingRepo repository.RankingRepository,
	articleRepo repository.ArticleRepository,
	cache *ScoreCache,
	publisher *events.Publisher,
	logger *zap.Logger,
) RankingService {
	return &rankingService{
		rankingRepo: rankingRepo,
		articleRepo: articleRepo,
		cache:       cache,
		publisher:   publisher,
		logger:      logger,
	}
}

// RankArticle records a user's score for an article along one dimension.
// Repeated submissions for the same triple overwrite the previous score.
func (s *rankingService) RankArticle(ctx context.Context, userID, articleID int64, req *dto.RankArticleRequest) (*domain.Ranking, error) {
	if !domain.KnownDimension(req.Dimension) {
		return nil, apperr.New(apperr.KindValidation, "unknown ranking dimension")
	}
	if req.Score < 1 || req.Score > 10 {
		return nil, apperr.New(apperr.KindValidation, "score must be between 1 and 10")
	}

	if _, err := s.articleRepo.GetByID(ctx, articleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "article not found")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up article")
	}

	ranking := &domain.Ranking{
		ArticleID: articleID,
		UserID:    userID,
		Dimension: req.Dimension,
		Score:     req.Score,
	}

	if err := s.rankingRepo.Upsert(ctx, ranking); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to store ranking")
	}

	s.invalidateScores(ctx, articleID)
	s.publishRanked(ctx, ranking)

	return ranking, nil
}

// GetArticleScores returns per-dimension averages, cache-aside over Redis.
func (s *rankingService) GetArticleScores(ctx context.Context, articleID int64) (*domain.ArticleScores, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, articleID)
		if err != nil {
			s.logger.Warn("score cache read failed", zap.Int64("article_id", articleID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	if _, err := s.articleRepo.GetByID(ctx, articleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "article not found")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up article")
	}

	scores, err := s.rankingRepo.Aggregate(ctx, articleID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to aggregate scores")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, scores); err != nil {
			s.logger.Warn("score cache write failed", zap.Int64("article_id", articleID), zap.Error(err))
		}
	}

	return scores, nil
}

func (s *rankingService) invalidateScores(ctx context.Context, articleID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, articleID); err != nil {
		s.logger.Warn("score cache invalidation failed", zap.Int64("article_id", articleID), zap.Error(err))
	}
}

func (s *rankingService) publishRanked(ctx context.Context, ranking *domain.Ranking) {
	event := events.ArticleRankedEvent{
		EventID:   uuid.NewString(),
		ArticleID: ranking.ArticleID,
		UserID:    ranking.UserID,
		Dimension: ranking.Dimension,
		Score:     ranking.Score,
		IsAI:      ranking.IsAI,
		RankedAt:  time.Now().UTC(),
	}
	// Fire-and-forget: a broker outage never fails the ranking request.
	_ = s.publisher.Publish(ctx, events.QueueArticleRanked, event)
}

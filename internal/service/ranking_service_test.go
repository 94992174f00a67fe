package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/repository"
)

type mockArticleRepo struct {
	mu       sync.Mutex
	articles map[int64]*domain.Article
	nextID   int64
}

func newMockArticleRepo() *mockArticleRepo {
	return &mockArticleRepo{articles: make(map[int64]*domain.Article), nextID: 1}
}

func (m *mockArticleRepo) Create(ctx context.Context, article *domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	article.ID = m.nextID
	m.nextID++
	article.CreatedAt = time.Now()
	article.UpdatedAt = article.CreatedAt
	clone := *article
	m.articles[article.ID] = &clone
	return nil
}

func (m *mockArticleRepo) GetByID(ctx context.Context, id int64) (*domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (m *mockArticleRepo) List(ctx context.Context, limit, offset int) ([]*domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Article
	for _, a := range m.articles {
		clone := *a
		out = append(out, &clone)
	}
	return out, nil
}

func (m *mockArticleRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.articles, id)
	return nil
}

type rankingKey struct {
	articleID int64
	userID    int64
	dimension string
}

type mockRankingRepo struct {
	mu       sync.Mutex
	rankings map[rankingKey]*domain.Ranking
	nextID   int64
}

func newMockRankingRepo() *mockRankingRepo {
	return &mockRankingRepo{rankings: make(map[rankingKey]*domain.Ranking), nextID: 1}
}

func (m *mockRankingRepo) Upsert(ctx context.Context, ranking *domain.Ranking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := rankingKey{ranking.ArticleID, ranking.UserID, ranking.Dimension}
	if existing, ok := m.rankings[key]; ok {
		existing.Score = ranking.Score
		existing.IsAI = ranking.IsAI
		existing.UpdatedAt = time.Now()
		ranking.ID = existing.ID
		return nil
	}
	ranking.ID = m.nextID
	m.nextID++
	ranking.CreatedAt = time.Now()
	ranking.UpdatedAt = ranking.CreatedAt
	clone := *ranking
	m.rankings[key] = &clone
	return nil
}

func (m *mockRankingRepo) ListByArticle(ctx context.Context, articleID int64) ([]*domain.Ranking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Ranking
	for _, r := range m.rankings {
		if r.ArticleID == articleID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockRankingRepo) Aggregate(ctx context.Context, articleID int64) (*domain.ArticleScores, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	scores := &domain.ArticleScores{ArticleID: articleID, Averages: make(map[string]float64)}
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, r := range m.rankings {
		if r.ArticleID != articleID {
			continue
		}
		sums[r.Dimension] += r.Score
		counts[r.Dimension]++
		scores.Count++
	}
	for dim, sum := range sums {
		scores.Averages[dim] = float64(sum) / float64(counts[dim])
	}
	return scores, nil
}

func newRankedArticle(t *testing.T, articles *mockArticleRepo) *domain.Article {
	t.Helper()
	article := &domain.Article{Title: "On Testing", URL: "https://example.com/a", AuthorID: 1, SubmittedBy: 1}
	require.NoError(t, articles.Create(context.Background(), article))
	return article
}

func TestRankArticle(t *testing.T) {
	articles := newMockArticleRepo()
	rankings := newMockRankingRepo()
	svc := NewRankingService(rankings, articles, nil, nil, zap.NewNop())
	article := newRankedArticle(t, articles)

	ranking, err := svc.RankArticle(context.Background(), 7, article.ID, &dto.RankArticleRequest{
		Dimension: domain.DimensionInsight, Score: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, ranking.Score)
	assert.False(t, ranking.IsAI)

	// Ranking again along the same dimension overwrites, not duplicates.
	_, err = svc.RankArticle(context.Background(), 7, article.ID, &dto.RankArticleRequest{
		Dimension: domain.DimensionInsight, Score: 3,
	})
	require.NoError(t, err)

	stored, err := rankings.ListByArticle(context.Background(), article.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, 3, stored[0].Score)
}

func TestRankArticleValidation(t *testing.T) {
	articles := newMockArticleRepo()
	svc := NewRankingService(newMockRankingRepo(), articles, nil, nil, zap.NewNop())
	article := newRankedArticle(t, articles)

	_, err := svc.RankArticle(context.Background(), 1, article.ID, &dto.RankArticleRequest{
		Dimension: "vibes", Score: 5,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.RankArticle(context.Background(), 1, article.ID, &dto.RankArticleRequest{
		Dimension: domain.DimensionStyle, Score: 11,
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.RankArticle(context.Background(), 1, 999, &dto.RankArticleRequest{
		Dimension: domain.DimensionStyle, Score: 5,
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetArticleScores(t *testing.T) {
	articles := newMockArticleRepo()
	rankings := newMockRankingRepo()
	svc := NewRankingService(rankings, articles, nil, nil, zap.NewNop())
	article := newRankedArticle(t, articles)

	for userID, score := range map[int64]int{1: 6, 2: 8} {
		_, err := svc.RankArticle(context.Background(), userID, article.ID, &dto.RankArticleRequest{
			Dimension: domain.DimensionAccuracy, Score: score,
		})
		require.NoError(t, err)
	}

	scores, err := svc.GetArticleScores(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Equal(t, article.ID, scores.ArticleID)
	assert.Equal(t, 2, scores.Count)
	assert.InDelta(t, 7.0, scores.Averages[domain.DimensionAccuracy], 0.001)
}

type fixedScorer struct {
	scores map[string]int
}

func (s fixedScorer) Score(ctx context.Context, article *domain.Article) (map[string]int, error) {
	return s.scores, nil
}

func TestAIScoreArticle(t *testing.T) {
	articles := newMockArticleRepo()
	rankings := newMockRankingRepo()
	article := newRankedArticle(t, articles)

	scorer := fixedScorer{scores: map[string]int{
		domain.DimensionInsight:  7,
		domain.DimensionAccuracy: 9,
		"vibes":                  5,  // unknown dimension, dropped
		domain.DimensionStyle:    42, // out of range, dropped
	}}
	svc := NewAIScoringService(scorer, articles, rankings, nil, zap.NewNop())

	const adminID = int64(99)
	result, err := svc.ScoreArticle(context.Background(), adminID, article.ID)
	require.NoError(t, err)
	assert.Len(t, result, 2)
	for _, r := range result {
		assert.True(t, r.IsAI)
		assert.Equal(t, adminID, r.UserID)
	}

	stored, err := rankings.ListByArticle(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

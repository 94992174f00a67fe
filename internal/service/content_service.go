package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type contentService struct {
	authorRepo  repository.AuthorRepository
	articleRepo repository.ArticleRepository
	logger      *zap.Logger
}

// NewContentService creates the author/article service.
func NewContentService(
	authorRepo repository.AuthorRepository,
	articleRepo repository.ArticleRepository,
	logger *zap.Logger,
) ContentService {
	return &contentService{
		authorRepo:  authorRepo,
		articleRepo: articleRepo,
		logger:      logger,
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *contentService) CreateAuthor(ctx context.Context, userID int64, req *dto.CreateAuthorRequest) (*domain.Author, error) {
	author := &domain.Author{
		Name:      req.Name,
		Bio:       req.Bio,
		CreatedBy: userID,
	}

	if err := s.authorRepo.Create(ctx, author); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to create author")
	}

	s.logger.Info("author created", zap.Int64("author_id", author.ID), zap.Int64("user_id", userID))
	return author, nil
}

func (s *contentService) ListAuthors(ctx context.Context, limit, offset int) ([]*domain.Author, error) {
	limit, offset = clampPage(limit, offset)

	authors, err := s.authorRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to list authors")
	}
	return authors, nil
}

func (s *contentService) CreateArticle(ctx context.Context, userID int64, req *dto.CreateArticleRequest) (*domain.Article, error) {
	if _, err := s.authorRepo.GetByID(ctx, req.AuthorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindValidation, "author does not exist")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up author")
	}

	article := &domain.Article{
		Title:       req.Title,
		URL:         req.URL,
		Summary:     req.Summary,
		AuthorID:    req.AuthorID,
		SubmittedBy: userID,
	}

	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to create article")
	}

	s.logger.Info("article submitted", zap.Int64("article_id", article.ID), zap.Int64("user_id", userID))
	return article, nil
}

func (s *contentService) GetArticle(ctx context.Context, id int64) (*domain.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "article not found")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up article")
	}
	return article, nil
}

func (s *contentService) ListArticles(ctx context.Context, limit, offset int) ([]*domain.Article, error) {
	limit, offset = clampPage(limit, offset)

	articles, err := s.articleRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to list articles")
	}
	return articles, nil
}

func (s *contentService) DeleteArticle(ctx context.Context, id int64) error {
	if err := s.articleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.New(apperr.KindNotFound, "article not found")
		}
		return apperr.Wrap(err, apperr.KindInternal, "failed to delete article")
	}
	return nil
}

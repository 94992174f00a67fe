package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/service"
)

// ContentHandler handles author, article and ranking requests.
type ContentHandler struct {
	contentService service.ContentService
	rankingService service.RankingService
	aiService      service.AIScoringService
}

// NewContentHandler creates a new content handler
func NewContentHandler(
	contentService service.ContentService,
	rankingService service.RankingService,
	aiService service.AIScoringService,
) *ContentHandler {
	return &ContentHandler{
		contentService: contentService,
		rankingService: rankingService,
		aiService:      aiService,
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.New(apperr.KindValidation, "invalid id"))
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}

// CreateAuthor registers a new author.
func (h *ContentHandler) CreateAuthor(c *gin.Context) {
	var req dto.CreateAuthorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	author, err := h.contentService.CreateAuthor(c.Request.Context(), c.GetInt64(ContextUserID), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, author)
}

// ListAuthors returns a page of authors.
func (h *ContentHandler) ListAuthors(c *gin.Context) {
	limit, offset := pagination(c)

	authors, err := h.contentService.ListAuthors(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authors)
}

// CreateArticle submits an article for ranking.
func (h *ContentHandler) CreateArticle(c *gin.Context) {
	var req dto.CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	article, err := h.contentService.CreateArticle(c.Request.Context(), c.GetInt64(ContextUserID), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, article)
}

// GetArticle returns a single article.
func (h *ContentHandler) GetArticle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	article, err := h.contentService.GetArticle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, article)
}

// ListArticles returns a page of articles.
func (h *ContentHandler) ListArticles(c *gin.Context) {
	limit, offset := pagination(c)

	articles, err := h.contentService.ListArticles(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, articles)
}

// DeleteArticle removes an article. Admin only.
func (h *ContentHandler) DeleteArticle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.contentService.DeleteArticle(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RankArticle records the caller's score for an article.
func (h *ContentHandler) RankArticle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.RankArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ranking, err := h.rankingService.RankArticle(c.Request.Context(), c.GetInt64(ContextUserID), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ranking)
}

// GetArticleScores returns per-dimension averages for an article.
func (h *ContentHandler) GetArticleScores(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	scores, err := h.rankingService.GetArticleScores(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, scores)
}

// ScoreArticleAI triggers AI pre-scoring for an article. Admin only.
func (h *ContentHandler) ScoreArticleAI(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rankings, err := h.aiService.ScoreArticle(c.Request.Context(), c.GetInt64(ContextUserID), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rankings)
}

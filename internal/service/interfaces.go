package service

import (
	"context"

	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/dto"
)

// TokenPair is a freshly minted access/refresh pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// AuthService defines the authentication lifecycle operations.
//
// Login, Refresh and Register return the user only; token material is minted
// separately via IssueTokens so credential issuance stays out of the domain
// checks.
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest, ipAddress string) (*domain.User, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*domain.User, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.User, error)
	IssueTokens(ctx context.Context, user *domain.User, userAgent, ipAddress string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	RequestPasswordReset(ctx context.Context, email, captchaToken, ipAddress string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Confirm(ctx context.Context, token string) (bool, error)
	VerifyAccessToken(token string) (*domain.TokenClaims, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

// ContentService defines author and article operations.
type ContentService interface {
	CreateAuthor(ctx context.Context, userID int64, req *dto.CreateAuthorRequest) (*domain.Author, error)
	ListAuthors(ctx context.Context, limit, offset int) ([]*domain.Author, error)
	CreateArticle(ctx context.Context, userID int64, req *dto.CreateArticleRequest) (*domain.Article, error)
	GetArticle(ctx context.Context, id int64) (*domain.Article, error)
	ListArticles(ctx context.Context, limit, offset int) ([]*domain.Article, error)
	DeleteArticle(ctx context.Context, id int64) error
}

// RankingService defines ranking operations.
type RankingService interface {
	RankArticle(ctx context.Context, userID, articleID int64, req *dto.RankArticleRequest) (*domain.Ranking, error)
	GetArticleScores(ctx context.Context, articleID int64) (*domain.ArticleScores, error)
}

// AIScoringService pre-scores articles via the external AI endpoint.
type AIScoringService interface {
	ScoreArticle(ctx context.Context, adminID, articleID int64) ([]*domain.Ranking, error)
}

// DonationService defines the donation flow.
type DonationService interface {
	CreateDonation(ctx context.Context, userID int64, req *dto.CreateDonationRequest) (*domain.Donation, error)
	HandleGatewayUpdate(ctx context.Context, req *dto.DonationWebhookRequest) error
	ListDonations(ctx context.Context, userID int64) ([]*domain.Donation, error)
	Receipt(ctx context.Context, userID, donationID int64) ([]byte, error)
}

// UserAdminService defines administrative user mutations.
type UserAdminService interface {
	SetUserActive(ctx context.Context, id int64, active bool) (*domain.User, error)
	UpdateUserRole(ctx context.Context, id int64, role string) (*domain.User, error)
}

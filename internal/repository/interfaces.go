package repository

import (
	"context"
	"time"

	"github.com/pressrank/pressrank/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByConfirmationToken(ctx context.Context, token string) (*domain.User, error)
	// GetByResetToken applies the expiry condition in the query itself: a row
	// is only returned while reset_token_expiry is in the future.
	GetByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error)
	Activate(ctx context.Context, id int64) error
	SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error
	// UpdatePassword persists the new hash and clears the reset token pair as
	// a side effect.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
	UpdateRole(ctx context.Context, id int64, role string) error
}

// RefreshTokenRepository defines methods for refresh token operations
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	// ConsumeValid atomically revokes a non-revoked, non-expired token and
	// returns the prior row, so a token value can be consumed exactly once
	// even under concurrent refresh calls. Returns ErrNotFound if no row
	// matched.
	ConsumeValid(ctx context.Context, token string) (*domain.RefreshToken, error)
	// Revoke marks a token revoked. Missing or already revoked tokens are not
	// an error; logout is idempotent.
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	GetByUserID(ctx context.Context, userID int64) ([]*domain.RefreshToken, error)
	DeleteExpired(ctx context.Context) error
}

// AuthorRepository defines methods for author operations
type AuthorRepository interface {
	Create(ctx context.Context, author *domain.Author) error
	GetByID(ctx context.Context, id int64) (*domain.Author, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Author, error)
}

// ArticleRepository defines methods for article operations
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	GetByID(ctx context.Context, id int64) (*domain.Article, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Article, error)
	Delete(ctx context.Context, id int64) error
}

// RankingRepository defines methods for ranking operations
type RankingRepository interface {
	// Upsert inserts a ranking or overwrites the score for an existing
	// user/article/dimension triple.
	Upsert(ctx context.Context, ranking *domain.Ranking) error
	ListByArticle(ctx context.Context, articleID int64) ([]*domain.Ranking, error)
	Aggregate(ctx context.Context, articleID int64) (*domain.ArticleScores, error)
}

// DonationRepository defines methods for donation operations
type DonationRepository interface {
	Create(ctx context.Context, donation *domain.Donation) error
	GetByID(ctx context.Context, id int64) (*domain.Donation, error)
	GetByReference(ctx context.Context, reference string) (*domain.Donation, error)
	UpdateStatusByReference(ctx context.Context, reference, status string) error
	ListByUser(ctx context.Context, userID int64) ([]*domain.Donation, error)
}

package repository

import (
	"github.com/pressrank/pressrank/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User     UserRepository
	Token    RefreshTokenRepository
	Author   AuthorRepository
	Article  ArticleRepository
	Ranking  RankingRepository
	Donation DonationRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:     NewUserRepository(db),
		Token:    NewRefreshTokenRepository(db),
		Author:   NewAuthorRepository(db),
		Article:  NewArticleRepository(db),
		Ranking:  NewRankingRepository(db),
		Donation: NewDonationRepository(db),
	}
}

package domain

import "time"

// Author is a writer whose articles can be submitted and ranked.
type Author struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Bio       *string   `json:"bio" db:"bio"`
	CreatedBy int64     `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Article is a submitted piece of content to be ranked.
type Article struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	URL         string    `json:"url" db:"url"`
	Summary     *string   `json:"summary" db:"summary"`
	AuthorID    int64     `json:"author_id" db:"author_id"`
	SubmittedBy int64     `json:"submitted_by" db:"submitted_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Ranking dimensions. One ranking per user/article/dimension; repeated
// submissions overwrite the previous score.
const (
	DimensionInsight  = "insight"
	DimensionAccuracy = "accuracy"
	DimensionStyle    = "style"
)

// KnownDimension reports whether d is one of the supported ranking dimensions.
func KnownDimension(d string) bool {
	return d == DimensionInsight || d == DimensionAccuracy || d == DimensionStyle
}

// Ranking is a single user's score for an article along one dimension.
// Scores produced by the AI pre-scoring flow carry IsAI = true.
type Ranking struct {
	ID        int64     `json:"id" db:"id"`
	ArticleID int64     `json:"article_id" db:"article_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Dimension string    `json:"dimension" db:"dimension"`
	Score     int       `json:"score" db:"score"`
	IsAI      bool      `json:"is_ai" db:"is_ai"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ArticleScores aggregates per-dimension averages for an article.
type ArticleScores struct {
	ArticleID int64              `json:"article_id"`
	Averages  map[string]float64 `json:"averages"`
	Count     int                `json:"count"`
}

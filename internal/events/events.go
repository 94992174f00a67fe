// Package events publishes domain events to the message broker. Publishing is
// fire-and-forget: failures are logged and returned, never fatal to the
// request that produced the event.
package events

import "time"

// Queue names. Durable queues, declared idempotently before each publish.
const (
	QueueArticleRanked     = "article.ranked"
	QueueDonationCompleted = "donation.completed"
)

// ArticleRankedEvent is emitted when a user or the AI scorer rates an article.
type ArticleRankedEvent struct {
	EventID   string    `json:"event_id"`
	ArticleID int64     `json:"article_id"`
	UserID    int64     `json:"user_id"`
	Dimension string    `json:"dimension"`
	Score     int       `json:"score"`
	IsAI      bool      `json:"is_ai"`
	RankedAt  time.Time `json:"ranked_at"`
}

// DonationCompletedEvent is emitted when the payment gateway confirms a
// donation.
type DonationCompletedEvent struct {
	EventID     string    `json:"event_id"`
	DonationID  int64     `json:"donation_id"`
	UserID      int64     `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Reference   string    `json:"reference"`
	CompletedAt time.Time `json:"completed_at"`
}

package domain

import "time"

// Donation statuses as reported by the payment gateway flow.
const (
	DonationPending   = "pending"
	DonationCompleted = "completed"
	DonationFailed    = "failed"
)

// Donation records a payment-gateway checkout initiated by a user.
// Reference is the idempotency key shared with the gateway.
type Donation struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	AmountCents int64     `json:"amount_cents" db:"amount_cents"`
	Currency    string    `json:"currency" db:"currency"`
	Status      string    `json:"status" db:"status"`
	Reference   string    `json:"reference" db:"reference"`
	CheckoutURL *string   `json:"checkout_url" db:"checkout_url"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

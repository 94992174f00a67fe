package dto

// CreateAuthorRequest represents an author creation request
type CreateAuthorRequest struct {
	Name string  `json:"name" binding:"required,min=2,max=200"`
	Bio  *string `json:"bio"`
}

// CreateArticleRequest represents an article submission request
type CreateArticleRequest struct {
	Title    string  `json:"title" binding:"required,min=3,max=300"`
	URL      string  `json:"url" binding:"required,url"`
	Summary  *string `json:"summary"`
	AuthorID int64   `json:"authorId" binding:"required"`
}

// RankArticleRequest represents a single score along one dimension
type RankArticleRequest struct {
	Dimension string `json:"dimension" binding:"required"`
	Score     int    `json:"score" binding:"required,min=1,max=10"`
}

// UpdateRoleRequest changes a user's role (admin only)
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// SetActiveRequest enables or disables a user account (admin only)
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// CreateDonationRequest starts a payment-gateway checkout
type CreateDonationRequest struct {
	AmountCents int64  `json:"amountCents" binding:"required,min=100"`
	Currency    string `json:"currency" binding:"required,len=3"`
}

// DonationWebhookRequest is posted by the payment gateway on status change
type DonationWebhookRequest struct {
	Reference string `json:"reference" binding:"required"`
	Status    string `json:"status" binding:"required,oneof=completed failed"`
}

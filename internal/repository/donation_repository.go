package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/pkg/database"
)

type donationRepository struct {
	db *database.Postgres
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *database.Postgres) DonationRepository {
	return &donationRepository{db: db}
}

func (r *donationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	query := `
		INSERT INTO donations (user_id, amount_cents, currency, status, reference, checkout_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	now := time.Now()
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = now
	}
	if donation.UpdatedAt.IsZero() {
		donation.UpdatedAt = now
	}

	err := r.db.DB.QueryRowContext(ctx, query,
		donation.UserID,
		donation.AmountCents,
		donation.Currency,
		donation.Status,
		donation.Reference,
		donation.CheckoutURL,
		donation.CreatedAt,
		donation.UpdatedAt,
	).Scan(&donation.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return fmt.Errorf("donation with reference %s already exists: %w", donation.Reference, ErrDuplicateReference)
		}
		return fmt.Errorf("failed to create donation: %w", err)
	}

	return nil
}

func (r *donationRepository) GetByID(ctx context.Context, id int64) (*domain.Donation, error) {
	query := donationSelect + ` WHERE id = $1`
	return r.scanDonation(r.db.DB.QueryRowContext(ctx, query, id), fmt.Sprintf("id %d", id))
}

func (r *donationRepository) GetByReference(ctx context.Context, reference string) (*domain.Donation, error) {
	query := donationSelect + ` WHERE reference = $1`
	return r.scanDonation(r.db.DB.QueryRowContext(ctx, query, reference), "reference "+reference)
}

func (r *donationRepository) UpdateStatusByReference(ctx context.Context, reference, status string) error {
	query := `UPDATE donations SET status = $2, updated_at = $3 WHERE reference = $1`

	result, err := r.db.DB.ExecContext(ctx, query, reference, status, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update donation status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("donation with reference %s not found: %w", reference, ErrNotFound)
	}

	return nil
}

func (r *donationRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Donation, error) {
	query := donationSelect + ` WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list donations: %w", err)
	}
	defer rows.Close()

	var donations []*domain.Donation
	for rows.Next() {
		donation := &domain.Donation{}
		var checkoutURL sql.NullString

		err := rows.Scan(
			&donation.ID,
			&donation.UserID,
			&donation.AmountCents,
			&donation.Currency,
			&donation.Status,
			&donation.Reference,
			&checkoutURL,
			&donation.CreatedAt,
			&donation.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan donation: %w", err)
		}

		if checkoutURL.Valid {
			donation.CheckoutURL = &checkoutURL.String
		}

		donations = append(donations, donation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate donations: %w", err)
	}

	return donations, nil
}

const donationSelect = `
	SELECT id, user_id, amount_cents, currency, status, reference, checkout_url, created_at, updated_at
	FROM donations`

func (r *donationRepository) scanDonation(row *sql.Row, what string) (*domain.Donation, error) {
	donation := &domain.Donation{}
	var checkoutURL sql.NullString

	err := row.Scan(
		&donation.ID,
		&donation.UserID,
		&donation.AmountCents,
		&donation.Currency,
		&donation.Status,
		&donation.Reference,
		&checkoutURL,
		&donation.CreatedAt,
		&donation.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("donation with %s not found: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get donation by %s: %w", what, err)
	}

	if checkoutURL.Valid {
		donation.CheckoutURL = &checkoutURL.String
	}

	return donation, nil
}

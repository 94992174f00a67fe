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

// refreshTokenRepository implements RefreshTokenRepository interface
type refreshTokenRepository struct {
	db *database.Postgres
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db *database.Postgres) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create inserts a new refresh token row.
func (r *refreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token, expires_at, is_revoked, user_agent, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	err := r.db.DB.QueryRowContext(ctx, query,
		token.UserID,
		token.Token,
		token.ExpiresAt,
		token.IsRevoked,
		token.UserAgent,
		token.IPAddress,
		token.CreatedAt,
	).Scan(&token.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return fmt.Errorf("refresh token already exists: %w", ErrDuplicateToken)
		}
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	return nil
}

// ConsumeValid revokes and returns a live token in one statement. The
// conditional update closes the double-refresh race: under concurrent calls
// with the same value, exactly one caller sees the row.
func (r *refreshTokenRepository) ConsumeValid(ctx context.Context, token string) (*domain.RefreshToken, error) {
	query := `
		UPDATE refresh_tokens
		SET is_revoked = true
		WHERE token = $1 AND is_revoked = false AND expires_at > $2
		RETURNING id, user_id, token, expires_at, is_revoked, user_agent, ip_address, created_at
	`

	rt := &domain.RefreshToken{}
	var userAgent, ipAddress sql.NullString

	err := r.db.DB.QueryRowContext(ctx, query, token, time.Now()).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.IsRevoked,
		&userAgent,
		&ipAddress,
		&rt.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("valid refresh token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}

	if userAgent.Valid {
		rt.UserAgent = &userAgent.String
	}
	if ipAddress.Valid {
		rt.IPAddress = &ipAddress.String
	}

	return rt, nil
}

// Revoke marks a token revoked. Zero rows affected is not an error.
func (r *refreshTokenRepository) Revoke(ctx context.Context, token string) error {
	query := `UPDATE refresh_tokens SET is_revoked = true WHERE token = $1`

	if _, err := r.db.DB.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return nil
}

// RevokeAllForUser revokes every live token a user holds. Used on password
// reset to force re-login everywhere.
func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	query := `UPDATE refresh_tokens SET is_revoked = true WHERE user_id = $1 AND is_revoked = false`

	if _, err := r.db.DB.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens for user %d: %w", userID, err)
	}

	return nil
}

// GetByUserID retrieves all refresh tokens for a user
func (r *refreshTokenRepository) GetByUserID(ctx context.Context, userID int64) ([]*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, is_revoked, user_agent, ip_address, created_at
		FROM refresh_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens by user id: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.RefreshToken
	for rows.Next() {
		rt := &domain.RefreshToken{}
		var userAgent, ipAddress sql.NullString

		err := rows.Scan(
			&rt.ID,
			&rt.UserID,
			&rt.Token,
			&rt.ExpiresAt,
			&rt.IsRevoked,
			&userAgent,
			&ipAddress,
			&rt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refresh token: %w", err)
		}

		if userAgent.Valid {
			rt.UserAgent = &userAgent.String
		}
		if ipAddress.Valid {
			rt.IPAddress = &ipAddress.String
		}

		tokens = append(tokens, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate refresh tokens: %w", err)
	}

	return tokens, nil
}

// DeleteExpired deletes all expired refresh tokens
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context) error {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	if _, err := r.db.DB.ExecContext(ctx, query, time.Now()); err != nil {
		return fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	return nil
}

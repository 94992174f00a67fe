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

const userColumns = `id, email, name, password_hash, role, is_active, confirmation_token,
		reset_token, reset_token_expiry, last_login_at, created_at, updated_at`

// userRepository implements UserRepository interface
type userRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.Postgres) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row and fills in the store-assigned id.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (email, name, password_hash, role, is_active, confirmation_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	err := r.db.DB.QueryRowContext(ctx, query,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.Role,
		user.IsActive,
		user.ConfirmationToken,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return fmt.Errorf("user with email %s already exists: %w", user.Email, ErrDuplicateEmail)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.DB.QueryRowContext(ctx, query, email), "email "+email)
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.DB.QueryRowContext(ctx, query, id), fmt.Sprintf("id %d", id))
}

// GetByConfirmationToken retrieves a user by its one-time confirmation token.
func (r *userRepository) GetByConfirmationToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE confirmation_token = $1`
	return r.scanUser(r.db.DB.QueryRowContext(ctx, query, token), "confirmation token")
}

// GetByResetToken retrieves a user by an unexpired password-reset token.
func (r *userRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1 AND reset_token_expiry > $2`
	return r.scanUser(r.db.DB.QueryRowContext(ctx, query, token, now), "reset token")
}

// Activate clears the confirmation token and marks the user active.
func (r *userRepository) Activate(ctx context.Context, id int64) error {
	query := `
		UPDATE users
		SET is_active = true, confirmation_token = NULL, updated_at = $2
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, fmt.Sprintf("user with id %d", id), id, time.Now())
}

// SetResetToken stores a password-reset token and its expiry on the user row.
func (r *userRepository) SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expiry = $3, updated_at = $4
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, fmt.Sprintf("user with id %d", id), id, token, expiry, time.Now())
}

// UpdatePassword persists a new password hash and clears the reset token pair.
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_token = NULL, reset_token_expiry = NULL, updated_at = $3
		WHERE id = $1
	`
	return r.execExpectingRow(ctx, query, fmt.Sprintf("user with id %d", id), id, passwordHash, time.Now())
}

// UpdateLastLogin updates the last login timestamp for a user
func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64) error {
	query := `UPDATE users SET last_login_at = $2 WHERE id = $1`
	return r.execExpectingRow(ctx, query, fmt.Sprintf("user with id %d", id), id, time.Now())
}

// SetActive enables or disables an account.
func (r *userRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1`
	return r.execExpectingRow(ctx, query, fmt.Sprintf("user with id %d", id), id, active, time.Now())
}

// UpdateRole changes a user's role.
func (r *userRepository) UpdateRole(ctx context.Context, id int64, role string) error {
	query := `UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`
	return r.execExpectingRow(ctx, query, fmt.Sprintf("user with id %d", id), id, role, time.Now())
}

func (r *userRepository) scanUser(row *sql.Row, what string) (*domain.User, error) {
	user := &domain.User{}
	var passwordHash, confirmationToken, resetToken sql.NullString
	var resetTokenExpiry, lastLoginAt sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&passwordHash,
		&user.Role,
		&user.IsActive,
		&confirmationToken,
		&resetToken,
		&resetTokenExpiry,
		&lastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with %s not found: %w", what, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", what, err)
	}

	if passwordHash.Valid {
		user.PasswordHash = &passwordHash.String
	}
	if confirmationToken.Valid {
		user.ConfirmationToken = &confirmationToken.String
	}
	if resetToken.Valid {
		user.ResetToken = &resetToken.String
	}
	if resetTokenExpiry.Valid {
		user.ResetTokenExpiry = &resetTokenExpiry.Time
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = &lastLoginAt.Time
	}

	return user, nil
}

func (r *userRepository) execExpectingRow(ctx context.Context, query, what string, args ...interface{}) error {
	result, err := r.db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%s not found: %w", what, ErrNotFound)
	}

	return nil
}

package domain

import "time"

// Roles assignable to users. RoleSuperAdmin is immutable through the
// role-management endpoint.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User represents an account in the system. Confirmation and password-reset
// tokens live inline on the row; both are cleared after use.
type User struct {
	ID                 int64      `json:"id" db:"id"`
	Email              string     `json:"email" db:"email"`
	Name               string     `json:"name" db:"name"`
	PasswordHash       *string    `json:"-" db:"password_hash"`
	Role               string     `json:"role" db:"role"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	ConfirmationToken  *string    `json:"-" db:"confirmation_token"`
	ResetToken         *string    `json:"-" db:"reset_token"`
	ResetTokenExpiry   *time.Time `json:"-" db:"reset_token_expiry"`
	LastLoginAt        *time.Time `json:"last_login_at" db:"last_login_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the user holds an administrative role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// HasValidResetToken reports whether an unexpired reset token is present.
// Used as the anti-spam guard before issuing a new one.
func (u *User) HasValidResetToken(now time.Time) bool {
	return u.ResetToken != nil && u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now)
}

package utils

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail reports whether email has a plausible address shape. Real
// deliverability is proven by the confirmation email, not here.
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword enforces the account password policy: at least 8 bytes
// with an uppercase letter, a lowercase letter, and a digit.
func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

// SanitizeEmail normalizes an address for storage and lookup. All email
// comparisons in the system go through this, so "User@X" and "user@x" are
// one account.
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

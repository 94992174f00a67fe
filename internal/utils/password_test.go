package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	for _, password := range []string{"Password123", "пароль-Ω-1A", "a B 3 longer passphrase!"} {
		hash, err := HashPassword(password, bcrypt.MinCost)
		require.NoError(t, err)
		assert.NotEqual(t, password, hash)

		assert.True(t, CheckPasswordHash(password, hash))
		assert.False(t, CheckPasswordHash(password+"x", hash))
	}
}

func TestHashPasswordNonDeterministic(t *testing.T) {
	first, err := HashPassword("Password123", bcrypt.MinCost)
	require.NoError(t, err)
	second, err := HashPassword("Password123", bcrypt.MinCost)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "bcrypt embeds a salt, hashes must differ")
}

func TestCheckPasswordHashMalformed(t *testing.T) {
	assert.False(t, CheckPasswordHash("Password123", "not-a-bcrypt-hash"))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("Password123"))
	assert.False(t, ValidatePassword("short1A"))
	assert.False(t, ValidatePassword("alllowercase1"))
	assert.False(t, ValidatePassword("ALLUPPERCASE1"))
	assert.False(t, ValidatePassword("NoNumbersHere"))
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "reader@example.com", SanitizeEmail("  Reader@Example.COM "))
}

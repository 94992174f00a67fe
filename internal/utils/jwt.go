package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pressrank/pressrank/internal/domain"
)

// Verification failures callers must branch on: an expired token maps to a
// different HTTP outcome than a malformed or badly signed one.
var (
	ErrTokenExpired   = errors.New("token is expired")
	ErrTokenMalformed = errors.New("token is malformed or has an invalid signature")
)

const opaqueTokenBytes = 32

// TokenIssuer mints signed access tokens and opaque refresh/reset tokens.
type TokenIssuer struct {
	secret              []byte
	accessTokenExpiry   time.Duration
	refreshTokenExpiry  time.Duration
	passwordResetExpiry time.Duration
}

// NewTokenIssuer creates a new token issuer.
func NewTokenIssuer(secret string, accessTokenExpiry, refreshTokenExpiry, passwordResetExpiry time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:              []byte(secret),
		accessTokenExpiry:   accessTokenExpiry,
		refreshTokenExpiry:  refreshTokenExpiry,
		passwordResetExpiry: passwordResetExpiry,
	}
}

// GenerateAccessToken generates a signed access token carrying the user's
// id, email and role.
func (t *TokenIssuer) GenerateAccessToken(user *domain.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
		"exp":     now.Add(t.accessTokenExpiry).Unix(),
		"iat":     now.Unix(),
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// VerifyAccessToken validates signature and expiry and returns the claims.
// Expired tokens return ErrTokenExpired; every other failure returns
// ErrTokenMalformed.
func (t *TokenIssuer) VerifyAccessToken(tokenString string) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, ErrTokenMalformed
	}

	email, ok := claims["email"].(string)
	if !ok {
		return nil, ErrTokenMalformed
	}

	role, ok := claims["role"].(string)
	if !ok {
		return nil, ErrTokenMalformed
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrTokenMalformed
	}

	iat, _ := claims["iat"].(float64)

	return &domain.TokenClaims{
		UserID: int64(userID),
		Email:  email,
		Role:   role,
		Exp:    int64(exp),
		Iat:    int64(iat),
	}, nil
}

// GenerateOpaqueToken returns a cryptographically random url-safe string used
// for refresh, confirmation and password-reset tokens. It carries no claims;
// all state lives in the store.
func GenerateOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// RefreshTokenExpiration returns the expiry timestamp for a refresh token
// minted now.
func (t *TokenIssuer) RefreshTokenExpiration() time.Time {
	return time.Now().Add(t.refreshTokenExpiry)
}

// PasswordResetExpiration returns the expiry timestamp for a reset token
// minted now.
func (t *TokenIssuer) PasswordResetExpiration() time.Time {
	return time.Now().Add(t.passwordResetExpiry)
}

// AccessTokenExpirySeconds returns the access token lifetime in seconds.
func (t *TokenIssuer) AccessTokenExpirySeconds() int {
	return int(t.accessTokenExpiry.Seconds())
}

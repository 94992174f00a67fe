package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInvalidCredentials, KindOf(ErrInvalidCredentials))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("login: %w", ErrAccountDisabled)
	assert.Equal(t, KindAccountDisabled, KindOf(wrapped))
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrEmailExists, http.StatusConflict},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrAccountDisabled, http.StatusUnauthorized},
		{ErrCaptchaFailed, http.StatusBadRequest},
		{ErrTokenInvalid, http.StatusBadRequest},
		{New(KindValidation, "missing field"), http.StatusBadRequest},
		{ErrForbidden, http.StatusForbidden},
		{errors.New("db exploded"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, Status(tc.err), "status for %v", tc.err)
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := Wrap(errors.New("row missing"), KindTokenInvalid, "invalid or expired token")
	assert.True(t, errors.Is(err, ErrTokenInvalid))
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}

func TestMessageHidesInternals(t *testing.T) {
	assert.Equal(t, "internal server error", Message(errors.New("pq: connection refused")))
	assert.Equal(t, "account is disabled", Message(ErrAccountDisabled))
}

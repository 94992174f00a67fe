package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/email"
	"github.com/pressrank/pressrank/internal/repository"
	"github.com/pressrank/pressrank/internal/utils"
)

// mockUserRepo is an in-memory UserRepository.
type mockUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[int64]*domain.User), nextID: 1}
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = m.nextID
	m.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, emailAddr string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == emailAddr {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *mockUserRepo) GetByConfirmationToken(ctx context.Context, token string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ConfirmationToken != nil && *u.ConfirmationToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) GetByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ResetToken != nil && *u.ResetToken == token &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockUserRepo) Activate(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = true
	u.ConfirmationToken = nil
	return nil
}

func (m *mockUserRepo) SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.ResetToken = &token
	u.ResetTokenExpiry = &expiry
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = &passwordHash
	u.ResetToken = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

func (m *mockUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Role = role
	return nil
}

// mockTokenRepo is an in-memory RefreshTokenRepository.
type mockTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
	nextID int64
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*domain.RefreshToken), nextID: 1}
}

func (m *mockTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tokens[token.Token]; exists {
		return repository.ErrDuplicateToken
	}
	token.ID = m.nextID
	m.nextID++
	token.CreatedAt = time.Now()
	clone := *token
	m.tokens[token.Token] = &clone
	return nil
}

func (m *mockTokenRepo) ConsumeValid(ctx context.Context, token string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[token]
	if !ok || t.IsRevoked || !t.ExpiresAt.After(time.Now()) {
		return nil, repository.ErrNotFound
	}
	t.IsRevoked = true
	clone := *t
	return &clone, nil
}

func (m *mockTokenRepo) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[token]; ok {
		t.IsRevoked = true
	}
	return nil
}

func (m *mockTokenRepo) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.IsRevoked = true
		}
	}
	return nil
}

func (m *mockTokenRepo) GetByUserID(ctx context.Context, userID int64) ([]*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.RefreshToken
	for _, t := range m.tokens {
		if t.UserID == userID {
			clone := *t
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockTokenRepo) DeleteExpired(ctx context.Context) error {
	return nil
}

// recordingSender captures outbound email.
type recordingSender struct {
	mu       sync.Mutex
	messages []email.Message
}

func (r *recordingSender) Send(ctx context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

// rejectingCaptcha fails every verification.
type rejectingCaptcha struct{}

func (rejectingCaptcha) Verify(ctx context.Context, token, remoteIP string) error {
	return errors.New("token rejected")
}

type authFixture struct {
	svc       AuthService
	userRepo  *mockUserRepo
	tokenRepo *mockTokenRepo
	sender    *recordingSender
}

func newAuthFixture(t *testing.T, captcha CaptchaVerifier) *authFixture {
	t.Helper()
	userRepo := newMockUserRepo()
	tokenRepo := newMockTokenRepo()
	sender := &recordingSender{}
	issuer := utils.NewTokenIssuer("test-secret-at-least-32-characters!!", 15*time.Minute, 7*24*time.Hour, time.Hour)

	svc := NewAuthService(userRepo, tokenRepo, issuer, sender, captcha,
		"http://localhost:3000", 4, zap.NewNop())

	return &authFixture{svc: svc, userRepo: userRepo, tokenRepo: tokenRepo, sender: sender}
}

func (f *authFixture) register(t *testing.T, emailAddr string) *domain.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    emailAddr,
		Name:     "Test User",
		Password: "Password1",
	}, "127.0.0.1")
	require.NoError(t, err)
	return user
}

func (f *authFixture) registerActive(t *testing.T, emailAddr string) *domain.User {
	t.Helper()
	user := f.register(t, emailAddr)
	require.NoError(t, f.userRepo.Activate(context.Background(), user.ID))
	user.IsActive = true
	return user
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t, nil)

	user := f.register(t, "New.User@Example.COM")

	assert.Equal(t, "new.user@example.com", user.Email, "email should be normalized")
	assert.False(t, user.IsActive, "new accounts start inactive")
	assert.Equal(t, domain.RoleUser, user.Role)
	require.NotNil(t, user.ConfirmationToken)

	require.Equal(t, 1, f.sender.count(), "exactly one confirmation email")
	assert.Contains(t, f.sender.messages[0].Body, *user.ConfirmationToken)
	assert.Equal(t, "new.user@example.com", f.sender.messages[0].To)

	// Password hash is stored, never the plaintext.
	stored, err := f.userRepo.GetByEmail(context.Background(), "new.user@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "Password1", *stored.PasswordHash)
	assert.True(t, utils.CheckPasswordHash("Password1", *stored.PasswordHash))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.register(t, "dup@example.com")

	_, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "DUP@example.com",
		Name:     "Other",
		Password: "Password1",
	}, "")
	assert.ErrorIs(t, err, apperr.ErrEmailExists)
	assert.Equal(t, 1, f.sender.count(), "no email for the failed registration")
}

func TestRegisterWeakPassword(t *testing.T) {
	f := newAuthFixture(t, nil)

	_, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "weak@example.com",
		Name:     "Weak",
		Password: "alllowercase1",
	}, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRegisterCaptchaRejected(t *testing.T) {
	f := newAuthFixture(t, rejectingCaptcha{})

	_, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Email:        "cap@example.com",
		Name:         "Cap",
		Password:     "Password1",
		CaptchaToken: "bad",
	}, "127.0.0.1")
	assert.ErrorIs(t, err, apperr.ErrCaptchaFailed)
	assert.Equal(t, 0, f.sender.count())
}

// Unknown email and wrong password must be indistinguishable; a disabled
// account must not be.
func TestLoginErrorDiscrimination(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.registerActive(t, "known@example.com")
	f.register(t, "unconfirmed@example.com")

	_, unknownErr := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email: "nobody@example.com", Password: "Password1",
	})
	_, wrongPassErr := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email: "known@example.com", Password: "WrongPass1",
	})
	_, disabledErr := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email: "unconfirmed@example.com", Password: "Password1",
	})
	_, disabledWrongPassErr := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email: "unconfirmed@example.com", Password: "WrongPass1",
	})

	assert.ErrorIs(t, unknownErr, apperr.ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPassErr, apperr.ErrInvalidCredentials)
	assert.Equal(t, apperr.Message(unknownErr), apperr.Message(wrongPassErr))

	// The disabled answer holds for any password value, right or wrong.
	assert.ErrorIs(t, disabledErr, apperr.ErrAccountDisabled)
	assert.ErrorIs(t, disabledWrongPassErr, apperr.ErrAccountDisabled)
	assert.NotEqual(t, apperr.Message(unknownErr), apperr.Message(disabledErr))
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.registerActive(t, "login@example.com")

	user, err := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email: " Login@Example.com ", Password: "Password1",
	})
	require.NoError(t, err)
	assert.Equal(t, "login@example.com", user.Email)

	stored, err := f.userRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestIssueTokensPersistsRefreshToken(t *testing.T) {
	f := newAuthFixture(t, nil)
	user := f.registerActive(t, "tokens@example.com")

	pair, err := f.svc.IssueTokens(context.Background(), user, "test-agent", "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 900, pair.ExpiresIn)

	claims, err := f.svc.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, domain.RoleUser, claims.Role)

	stored, err := f.tokenRepo.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, pair.RefreshToken, stored[0].Token)
	require.NotNil(t, stored[0].UserAgent)
	assert.Equal(t, "test-agent", *stored[0].UserAgent)
}

// A refresh token works exactly once: after a successful refresh the old
// value is dead.
func TestRefreshRotation(t *testing.T) {
	f := newAuthFixture(t, nil)
	user := f.registerActive(t, "rotate@example.com")

	pair, err := f.svc.IssueTokens(context.Background(), user, "", "")
	require.NoError(t, err)

	got, err := f.svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestRefreshDisabledAccount(t *testing.T) {
	f := newAuthFixture(t, nil)
	user := f.registerActive(t, "refresh-disabled@example.com")

	pair, err := f.svc.IssueTokens(context.Background(), user, "", "")
	require.NoError(t, err)

	require.NoError(t, f.userRepo.SetActive(context.Background(), user.ID, false))

	_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrAccountDisabled)
}

func TestLogoutIdempotent(t *testing.T) {
	f := newAuthFixture(t, nil)
	user := f.registerActive(t, "logout@example.com")

	pair, err := f.svc.IssueTokens(context.Background(), user, "", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), pair.RefreshToken))
	require.NoError(t, f.svc.Logout(context.Background(), pair.RefreshToken))
	require.NoError(t, f.svc.Logout(context.Background(), "never-issued"))

	_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

// The reset-request flow is silent for unknown addresses and suppresses a
// repeat send while an earlier token is still valid.
func TestRequestPasswordReset(t *testing.T) {
	f := newAuthFixture(t, nil)
	f.registerActive(t, "reset@example.com")
	baseline := f.sender.count()

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "nobody@example.com", "", ""))
	assert.Equal(t, baseline, f.sender.count(), "unknown email sends nothing")

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "reset@example.com", "", ""))
	assert.Equal(t, baseline+1, f.sender.count())

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "reset@example.com", "", ""))
	assert.Equal(t, baseline+1, f.sender.count(), "valid token suppresses a repeat send")

	// Once the token expires, a new request issues a fresh token and email.
	stored, err := f.userRepo.GetByEmail(context.Background(), "reset@example.com")
	require.NoError(t, err)
	require.NoError(t, f.userRepo.SetResetToken(context.Background(), stored.ID,
		*stored.ResetToken, time.Now().Add(-time.Minute)))

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "reset@example.com", "", ""))
	assert.Equal(t, baseline+2, f.sender.count())

	refreshed, err := f.userRepo.GetByEmail(context.Background(), "reset@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, *stored.ResetToken, *refreshed.ResetToken)
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	f := newAuthFixture(t, nil)
	user := f.registerActive(t, "revoke@example.com")

	pair, err := f.svc.IssueTokens(context.Background(), user, "", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "revoke@example.com", "", ""))
	stored, err := f.userRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetToken)

	require.NoError(t, f.svc.ResetPassword(context.Background(), *stored.ResetToken, "NewPassword1"))

	_, err = f.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid, "existing sessions die with the reset")

	_, err = f.svc.Login(context.Background(), &dto.LoginRequest{
		Email: "revoke@example.com", Password: "Password1",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials, "old password no longer works")

	got, err := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email: "revoke@example.com", Password: "NewPassword1",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// The token is single use.
	err = f.svc.ResetPassword(context.Background(), *stored.ResetToken, "AnotherPass1")
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	f := newAuthFixture(t, nil)
	user := f.registerActive(t, "expired@example.com")

	token := "expired-reset-token"
	require.NoError(t, f.userRepo.SetResetToken(context.Background(), user.ID, token, time.Now().Add(-time.Minute)))

	err := f.svc.ResetPassword(context.Background(), token, "NewPassword1")
	assert.ErrorIs(t, err, apperr.ErrTokenInvalid)
}

func TestConfirm(t *testing.T) {
	f := newAuthFixture(t, nil)
	user := f.register(t, "confirm@example.com")
	require.NotNil(t, user.ConfirmationToken)

	ok, err := f.svc.Confirm(context.Background(), *user.ConfirmationToken)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := f.userRepo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Nil(t, stored.ConfirmationToken, "token is cleared after use")

	// Replaying the same token after it was cleared reports false, same as a
	// token that never existed.
	ok, err = f.svc.Confirm(context.Background(), *user.ConfirmationToken)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.Confirm(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.False(t, ok, "unknown token is not an error")
}

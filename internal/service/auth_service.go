package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/email"
	"github.com/pressrank/pressrank/internal/repository"
	"github.com/pressrank/pressrank/internal/utils"
)

const passwordPolicyMessage = "password must be at least 8 characters and contain an uppercase letter, a lowercase letter and a number"

type authService struct {
	userRepo   repository.UserRepository
	tokenRepo  repository.RefreshTokenRepository
	issuer     *utils.TokenIssuer
	sender     email.Sender
	captcha    CaptchaVerifier
	publicURL  string
	bcryptCost int
	logger     *zap.Logger
}

// NewAuthService creates the authentication service. A nil captcha verifier
// disables captcha enforcement.
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	issuer *utils.TokenIssuer,
	sender email.Sender,
	captcha CaptchaVerifier,
	publicURL string,
	bcryptCost int,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		issuer:     issuer,
		sender:     sender,
		captcha:    captcha,
		publicURL:  publicURL,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates an inactive user and sends a confirmation email. The
// account cannot log in until the emailed token is confirmed.
func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest, ipAddress string) (*domain.User, error) {
	if err := s.verifyCaptcha(ctx, req.CaptchaToken, ipAddress); err != nil {
		return nil, err
	}

	normalizedEmail := utils.SanitizeEmail(req.Email)
	if !utils.ValidateEmail(normalizedEmail) {
		return nil, apperr.New(apperr.KindValidation, "invalid email format")
	}
	if !utils.ValidatePassword(req.Password) {
		return nil, apperr.New(apperr.KindValidation, passwordPolicyMessage)
	}

	if _, err := s.userRepo.GetByEmail(ctx, normalizedEmail); err == nil {
		return nil, apperr.ErrEmailExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to check existing user")
	}

	passwordHash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to hash password")
	}

	confirmationToken, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to generate confirmation token")
	}

	user := &domain.User{
		Email:             normalizedEmail,
		Name:              req.Name,
		PasswordHash:      &passwordHash,
		Role:              domain.RoleUser,
		IsActive:          false,
		ConfirmationToken: &confirmationToken,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.ErrEmailExists
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to create user")
	}

	msg := email.ConfirmationMessage(user.Email, user.Name, s.publicURL, confirmationToken)
	if err := s.sender.Send(ctx, msg); err != nil {
		// Registration already succeeded; the user can request the email again
		// through the password-reset flow or support.
		s.logger.Warn("failed to send confirmation email",
			zap.Int64("user_id", user.ID),
			zap.Error(err))
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// Login validates credentials and returns the user. Unknown email and wrong
// password produce the same error; only a disabled account is distinguishable.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*domain.User, error) {
	normalizedEmail := utils.SanitizeEmail(req.Email)

	user, err := s.userRepo.GetByEmail(ctx, normalizedEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up user")
	}

	// The disabled check comes before the password compare: a disabled
	// account answers ACCOUNT_DISABLED for any password value.
	if !user.IsActive {
		return nil, apperr.ErrAccountDisabled
	}

	if user.PasswordHash == nil || !utils.CheckPasswordHash(req.Password, *user.PasswordHash) {
		return nil, apperr.ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	return user, nil
}

// Refresh consumes a refresh token and returns its owner. Consumption is
// atomic: a token value works exactly once, so a replayed or concurrent use
// of the same value fails.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.User, error) {
	stored, err := s.tokenRepo.ConsumeValid(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.ErrTokenInvalid
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to consume refresh token")
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up user")
	}

	if !user.IsActive {
		return nil, apperr.ErrAccountDisabled
	}

	return user, nil
}

// IssueTokens mints an access/refresh pair for the user and persists the
// refresh token with its client metadata.
func (s *authService) IssueTokens(ctx context.Context, user *domain.User, userAgent, ipAddress string) (*TokenPair, error) {
	accessToken, err := s.issuer.GenerateAccessToken(user)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to generate access token")
	}

	refreshToken, err := utils.GenerateOpaqueToken()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to generate refresh token")
	}

	record := &domain.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: s.issuer.RefreshTokenExpiration(),
	}
	if userAgent != "" {
		record.UserAgent = &userAgent
	}
	if ipAddress != "" {
		record.IPAddress = &ipAddress
	}

	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to store refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.issuer.AccessTokenExpirySeconds(),
	}, nil
}

// Logout revokes the refresh token. Revoking an unknown or already revoked
// token succeeds; logout is idempotent.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokenRepo.Revoke(ctx, refreshToken); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "failed to revoke refresh token")
	}
	return nil
}

// RequestPasswordReset sends a reset email if the address belongs to a user.
// Unknown addresses succeed silently to prevent account enumeration, and a
// still-valid earlier token suppresses a repeat send.
func (s *authService) RequestPasswordReset(ctx context.Context, emailAddr, captchaToken, ipAddress string) error {
	if err := s.verifyCaptcha(ctx, captchaToken, ipAddress); err != nil {
		return err
	}

	normalizedEmail := utils.SanitizeEmail(emailAddr)

	user, err := s.userRepo.GetByEmail(ctx, normalizedEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperr.Wrap(err, apperr.KindInternal, "failed to look up user")
	}

	if user.HasValidResetToken(time.Now()) {
		s.logger.Debug("password reset suppressed, token still valid", zap.Int64("user_id", user.ID))
		return nil
	}

	resetToken, err := utils.GenerateOpaqueToken()
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "failed to generate reset token")
	}

	if err := s.userRepo.SetResetToken(ctx, user.ID, resetToken, s.issuer.PasswordResetExpiration()); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "failed to store reset token")
	}

	msg := email.PasswordResetMessage(user.Email, user.Name, s.publicURL, resetToken)
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to send password reset email",
			zap.Int64("user_id", user.ID),
			zap.Error(err))
	}

	return nil
}

// ResetPassword sets a new password for the owner of a valid reset token,
// clears the token and revokes every refresh token the user holds.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if !utils.ValidatePassword(newPassword) {
		return apperr.New(apperr.KindValidation, passwordPolicyMessage)
	}

	user, err := s.userRepo.GetByResetToken(ctx, token, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.ErrTokenInvalid
		}
		return apperr.Wrap(err, apperr.KindInternal, "failed to look up reset token")
	}

	passwordHash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "failed to hash password")
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "failed to update password")
	}

	if err := s.tokenRepo.RevokeAllForUser(ctx, user.ID); err != nil {
		return apperr.Wrap(err, apperr.KindInternal, "failed to revoke sessions")
	}

	s.logger.Info("password reset completed", zap.Int64("user_id", user.ID))
	return nil
}

// Confirm activates the account matching the confirmation token. It reports
// whether a matching account was found; an unknown token is not an error.
func (s *authService) Confirm(ctx context.Context, token string) (bool, error) {
	user, err := s.userRepo.GetByConfirmationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, apperr.Wrap(err, apperr.KindInternal, "failed to look up confirmation token")
	}

	if err := s.userRepo.Activate(ctx, user.ID); err != nil {
		return false, apperr.Wrap(err, apperr.KindInternal, "failed to activate user")
	}

	s.logger.Info("user confirmed", zap.Int64("user_id", user.ID))
	return true, nil
}

// VerifyAccessToken validates a bearer token and returns its claims.
func (s *authService) VerifyAccessToken(token string) (*domain.TokenClaims, error) {
	return s.issuer.VerifyAccessToken(token)
}

// GetUser returns the user by id.
func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up user")
	}
	return user, nil
}

func (s *authService) verifyCaptcha(ctx context.Context, token, ipAddress string) error {
	if s.captcha == nil {
		return nil
	}
	if err := s.captcha.Verify(ctx, token, ipAddress); err != nil {
		s.logger.Info("captcha verification failed", zap.Error(err))
		return apperr.Wrap(err, apperr.KindCaptchaFailed, "captcha verification failed")
	}
	return nil
}

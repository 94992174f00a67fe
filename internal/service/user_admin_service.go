package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/repository"
)

type userAdminService struct {
	userRepo  repository.UserRepository
	tokenRepo repository.RefreshTokenRepository
	logger    *zap.Logger
}

// NewUserAdminService creates the administrative user service.
func NewUserAdminService(
	userRepo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	logger *zap.Logger,
) UserAdminService {
	return &userAdminService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		logger:    logger,
	}
}

// SetUserActive enables or disables an account. Disabling also revokes every
// refresh token the user holds, so live sessions die with the account.
func (s *userAdminService) SetUserActive(ctx context.Context, id int64, active bool) (*domain.User, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Role == domain.RoleSuperAdmin {
		return nil, apperr.New(apperr.KindForbidden, "super admin accounts cannot be modified")
	}

	if err := s.userRepo.SetActive(ctx, id, active); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to update user")
	}
	user.IsActive = active

	if !active {
		if err := s.tokenRepo.RevokeAllForUser(ctx, id); err != nil {
			return nil, apperr.Wrap(err, apperr.KindInternal, "failed to revoke sessions")
		}
	}

	s.logger.Info("user active flag changed", zap.Int64("user_id", id), zap.Bool("active", active))
	return user, nil
}

// UpdateUserRole changes a user's role. The super_admin role can be neither
// granted nor taken away here.
func (s *userAdminService) UpdateUserRole(ctx context.Context, id int64, role string) (*domain.User, error) {
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, apperr.New(apperr.KindValidation, "role must be user or admin")
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if user.Role == domain.RoleSuperAdmin {
		return nil, apperr.New(apperr.KindForbidden, "super admin accounts cannot be modified")
	}

	if err := s.userRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to update role")
	}
	user.Role = role

	s.logger.Info("user role changed", zap.Int64("user_id", id), zap.String("role", role))
	return user, nil
}

func (s *userAdminService) getUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to look up user")
	}
	return user, nil
}

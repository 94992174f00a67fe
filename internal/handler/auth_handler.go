package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/service"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func userInfo(user *domain.User) dto.UserInfo {
	return dto.UserInfo{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	}
}

func authResponse(user *domain.User, pair *service.TokenPair) dto.AuthResponse {
	return dto.AuthResponse{
		User:         userInfo(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    pair.ExpiresIn,
	}
}

// Register handles user registration. The new account is inactive until the
// emailed confirmation token is used; no tokens are issued here.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.RegisterResponse{User: userInfo(user)})
}

// Confirm activates the account matching the emailed confirmation token.
func (h *AuthHandler) Confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, apperr.New(apperr.KindValidation, "token query parameter is required"))
		return
	}

	ok, err := h.authService.Confirm(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		respondError(c, apperr.ErrTokenInvalid)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "email confirmed"})
}

// Login authenticates with email and password and issues a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	pair, err := h.authService.IssueTokens(c.Request.Context(), user, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse(user, pair))
}

// Refresh exchanges a refresh token for a fresh pair. The old token is
// consumed whether or not the exchange completes.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		// A dead refresh token means the session is over, not that the
		// request was malformed.
		if errors.Is(err, apperr.ErrTokenInvalid) {
			c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   string(apperr.KindTokenInvalid),
				Message: apperr.Message(err),
			})
			return
		}
		respondError(c, err)
		return
	}

	pair, err := h.authService.IssueTokens(c.Request.Context(), user, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse(user, pair))
}

// Logout revokes the presented refresh token. Always succeeds for a
// well-formed request.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RequestPasswordReset asks for a reset email. The response is identical
// whether or not the address belongs to an account.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email, req.CaptchaToken, c.ClientIP()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{
		Message: "if the address belongs to an account, a reset email has been sent",
	})
}

// ConfirmPasswordReset completes a reset with the emailed token.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req dto.PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "password updated"})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetInt64(ContextUserID)

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, userInfo(user))
}

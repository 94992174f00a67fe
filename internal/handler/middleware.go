package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/domain"
	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/service"
	"github.com/pressrank/pressrank/internal/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error:   "UNAUTHORIZED",
		Message: message,
	})
	c.Abort()
}

// AuthMiddleware validates the bearer token and adds user info to the
// context. Expired and malformed tokens both produce 401, with messages a
// client can tell apart.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := authService.VerifyAccessToken(parts[1])
		if err != nil {
			if errors.Is(err, utils.ErrTokenExpired) {
				abortUnauthorized(c, "Access token is expired")
				return
			}
			abortUnauthorized(c, "Invalid access token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RequireAdmin allows only admin and super_admin roles past. Must run after
// AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role != domain.RoleAdmin && role != domain.RoleSuperAdmin {
			c.JSON(http.StatusForbidden, dto.ErrorResponse{
				Error:   string(apperr.KindForbidden),
				Message: "admin access required",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

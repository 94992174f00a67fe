package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/service"
)

// AdminHandler handles administrative user mutations.
type AdminHandler struct {
	adminService service.UserAdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService service.UserAdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// SetActive enables or disables a user account.
func (h *AdminHandler) SetActive(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.adminService.SetUserActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, userInfo(user))
}

// UpdateRole changes a user's role.
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.adminService.UpdateUserRole(c.Request.Context(), id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, userInfo(user))
}

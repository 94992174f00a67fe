package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressrank/pressrank/internal/apperr"
	"github.com/pressrank/pressrank/internal/dto"
)

// respondError renders a domain error. The mapping is driven by the error's
// kind; message text never influences the status code.
func respondError(c *gin.Context, err error) {
	c.JSON(apperr.Status(err), dto.ErrorResponse{
		Error:   string(apperr.KindOf(err)),
		Message: apperr.Message(err),
	})
}

// respondBindError renders a request-body validation failure.
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   string(apperr.KindValidation),
		Message: "invalid request body",
		Details: err.Error(),
	})
}

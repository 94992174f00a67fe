package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressrank/pressrank/internal/dto"
	"github.com/pressrank/pressrank/internal/service"
)

// DonationHandler handles donation requests and gateway callbacks.
type DonationHandler struct {
	donationService service.DonationService
}

// NewDonationHandler creates a new donation handler
func NewDonationHandler(donationService service.DonationService) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

// Create starts a donation checkout for the authenticated user.
func (h *DonationHandler) Create(c *gin.Context) {
	var req dto.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	donation, err := h.donationService.CreateDonation(c.Request.Context(), c.GetInt64(ContextUserID), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, donation)
}

// List returns the authenticated user's donations.
func (h *DonationHandler) List(c *gin.Context) {
	donations, err := h.donationService.ListDonations(c.Request.Context(), c.GetInt64(ContextUserID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, donations)
}

// Receipt streams the PDF receipt for a completed donation.
func (h *DonationHandler) Receipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	pdf, err := h.donationService.Receipt(c.Request.Context(), c.GetInt64(ContextUserID), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="donation-%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Webhook applies a payment-gateway status callback. Unauthenticated; the
// gateway proves itself via the reference it echoes back.
func (h *DonationHandler) Webhook(c *gin.Context) {
	var req dto.DonationWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.donationService.HandleGatewayUpdate(c.Request.Context(), &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "ok"})
}

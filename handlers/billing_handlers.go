package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/services"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// BillingHandler handles rent statements and payment links
type BillingHandler struct {
	billing *services.BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billing *services.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// GetRentStatement handles GET /leases/:id/rent
func (h *BillingHandler) GetRentStatement(c *gin.Context) {
	stmt, err := h.billing.GetRentStatement(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, stmt)
}

// PayNow handles POST /leases/:id/pay
func (h *BillingHandler) PayNow(c *gin.Context) {
	result, err := h.billing.PayNow(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if result.Reused {
		utils.HandleSuccess(c, result)
		return
	}
	utils.HandleCreated(c, result)
}

// CreatePaymentLink handles POST /payments/:id/link
func (h *BillingHandler) CreatePaymentLink(c *gin.Context) {
	result, err := h.billing.CreatePaymentLink(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, result)
}

// GetPaymentLink handles GET /payments/:id/link
func (h *BillingHandler) GetPaymentLink(c *gin.Context) {
	result, err := h.billing.GetPaymentLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, result)
}

// CreateCharge handles POST /payments
func (h *BillingHandler) CreateCharge(c *gin.Context) {
	var req models.CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewBadRequestError(utils.ErrInvalidRequest))
		return
	}

	payment, err := h.billing.CreateCharge(c.Request.Context(), &req, actorFrom(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleCreated(c, payment)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fadhlanhapp/rentlot-backend/services"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// GetPayment handles GET /payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	view, err := h.paymentService.GetPaymentView(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, view)
}

// CancelPayment handles POST /payments/:id/cancel
func (h *PaymentHandler) CancelPayment(c *gin.Context) {
	payment, err := h.paymentService.CancelPayment(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, payment)
}

// RefundPayment handles POST /payments/:id/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	payment, err := h.paymentService.RefundPayment(c.Request.Context(), c.Param("id"), actorFrom(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, payment)
}

// SweepOverdue handles POST /payments/sweep-overdue
func (h *PaymentHandler) SweepOverdue(c *gin.Context) {
	n, err := h.paymentService.SweepOverdue(c.Request.Context(), actorFrom(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, gin.H{"markedOverdue": n})
}

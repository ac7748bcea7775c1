package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/services"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// LeaseHandler handles lease HTTP requests
type LeaseHandler struct {
	leaseService *services.LeaseService
}

// NewLeaseHandler creates a new lease handler
func NewLeaseHandler(leaseService *services.LeaseService) *LeaseHandler {
	return &LeaseHandler{leaseService: leaseService}
}

// CreateLease handles POST /leases
func (h *LeaseHandler) CreateLease(c *gin.Context) {
	var req models.CreateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.HandleError(c, utils.NewBadRequestError(utils.ErrInvalidRequest))
		return
	}

	lease, err := h.leaseService.CreateLease(c.Request.Context(), &req, actorFrom(c))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleCreated(c, lease)
}

// DeleteLease handles DELETE /leases/:id
func (h *LeaseHandler) DeleteLease(c *gin.Context) {
	if err := h.leaseService.DeleteLease(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, gin.H{"message": "Lease deleted successfully"})
}

// GetLease handles GET /leases/:id
func (h *LeaseHandler) GetLease(c *gin.Context) {
	view, err := h.leaseService.GetLease(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, view)
}

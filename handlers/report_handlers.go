package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/services"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// ReportHandler serves payment summaries
type ReportHandler struct {
	audit *services.AuditService
}

func NewReportHandler(audit *services.AuditService) *ReportHandler {
	return &ReportHandler{audit: audit}
}

// TenantSummary handles GET /tenants/:id/payments/summary
func (h *ReportHandler) TenantSummary(c *gin.Context) {
	var q models.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleError(c, utils.NewBadRequestError(utils.ErrInvalidRequest))
		return
	}
	summary, err := h.audit.TenantSummary(c.Request.Context(), c.Param("id"), q.Recent)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, summary)
}

// PropertySummary handles GET /properties/:id/payments/summary
func (h *ReportHandler) PropertySummary(c *gin.Context) {
	var q models.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.HandleError(c, utils.NewBadRequestError(utils.ErrInvalidRequest))
		return
	}
	summary, err := h.audit.PropertySummary(c.Request.Context(), c.Param("id"), q.Recent)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, summary)
}

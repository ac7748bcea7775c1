package handlers

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/fadhlanhapp/rentlot-backend/services"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

// ExcelHandler serves spreadsheet exports
type ExcelHandler struct {
	excelService *services.ExcelService
}

func NewExcelHandler(excelService *services.ExcelService) *ExcelHandler {
	return &ExcelHandler{excelService: excelService}
}

// ExportTenantStatement handles GET /tenants/:id/payments/statement.xlsx
func (h *ExcelHandler) ExportTenantStatement(c *gin.Context) {
	excelFile, filename, err := h.excelService.ExportTenantStatement(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer excelFile.Close()

	// Set headers for file download
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Content-Transfer-Encoding", "binary")

	// Headers are already sent, so a write failure can only be logged
	if err := excelFile.Write(c.Writer); err != nil {
		slog.Error("[ExcelHandler] Failed to write statement", "tenantID", c.Param("id"), "error", err)
	}
}

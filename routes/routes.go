package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fadhlanhapp/rentlot-backend/handlers"
)

// Handlers bundles every HTTP handler the API exposes
type Handlers struct {
	Billing  *handlers.BillingHandler
	Payments *handlers.PaymentHandler
	Leases   *handlers.LeaseHandler
	Reports  *handlers.ReportHandler
	Excel    *handlers.ExcelHandler
	Webhooks *handlers.WebhookHandler
}

// SetupRoutes configures all API routes for the application
func SetupRoutes(router *gin.Engine, h *Handlers) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Gateway callbacks authenticate by signature, not by actor headers
	v1.POST("/webhooks/paypal", h.Webhooks.HandlePayPal)
	v1.POST("/webhooks/paypal/:account", h.Webhooks.HandlePayPal)

	api := v1.Group("", handlers.RequireActor())
	{
		// Lease endpoints
		api.GET("/leases/:id", h.Leases.GetLease)
		api.GET("/leases/:id/rent", h.Billing.GetRentStatement)
		api.POST("/leases/:id/pay", h.Billing.PayNow)

		// Payment endpoints
		api.GET("/payments/:id", h.Payments.GetPayment)
		api.POST("/payments/:id/link", h.Billing.CreatePaymentLink)
		api.GET("/payments/:id/link", h.Billing.GetPaymentLink)

		// Report endpoints
		api.GET("/tenants/:id/payments/summary", h.Reports.TenantSummary)
		api.GET("/tenants/:id/payments/statement.xlsx", h.Excel.ExportTenantStatement)
		api.GET("/properties/:id/payments/summary", h.Reports.PropertySummary)
	}

	admin := api.Group("", handlers.RequireAdmin())
	{
		admin.POST("/leases", h.Leases.CreateLease)
		admin.DELETE("/leases/:id", h.Leases.DeleteLease)
		admin.POST("/payments", h.Billing.CreateCharge)
		admin.POST("/payments/sweep-overdue", h.Payments.SweepOverdue)
		admin.POST("/payments/:id/cancel", h.Payments.CancelPayment)
		admin.POST("/payments/:id/refund", h.Payments.RefundPayment)
		admin.GET("/webhooks/anomalies", h.Webhooks.ListAnomalies)
	}
}

package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fadhlanhapp/rentlot-backend/gateway"
	"github.com/fadhlanhapp/rentlot-backend/handlers"
	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/repository"
	"github.com/fadhlanhapp/rentlot-backend/routes"
	"github.com/fadhlanhapp/rentlot-backend/services"
)

// stubAccount creates links locally and parses webhooks without signature checks
type stubAccount struct{}

func (stubAccount) Name() string { return "default" }

func (stubAccount) CreateLink(_ context.Context, req gateway.LinkRequest) (*gateway.Link, error) {
	id := "ORDER-" + req.RecordID()
	return &gateway.Link{ID: id, URL: "https://pay.test/" + id, Status: gateway.LinkOpen}, nil
}

func (stubAccount) RetrieveLink(_ context.Context, linkID string) (*gateway.Link, error) {
	return &gateway.Link{ID: linkID, URL: "https://pay.test/" + linkID, Status: gateway.LinkOpen}, nil
}

func (stubAccount) ParseEvent(_ context.Context, r *http.Request) (*models.GatewayEvent, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	return gateway.ParsePayPalEvent(body)
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, repository.Migrate(gdb))

	payments := repository.NewGormPaymentRepository(gdb)
	leases := repository.NewLeaseRepository(gdb)
	anomalies := repository.NewAnomalyRepository(gdb)
	gateways := gateway.NewRouter(stubAccount{})

	paymentService := services.NewPaymentService(payments)
	billingService := services.NewBillingService(leases, paymentService, gateways, nil, services.BillingOptions{Currency: "USD"})
	auditService := services.NewAuditService(payments, 5)

	router := gin.New()
	routes.SetupRoutes(router, &routes.Handlers{
		Billing:  handlers.NewBillingHandler(billingService),
		Payments: handlers.NewPaymentHandler(paymentService),
		Leases:   handlers.NewLeaseHandler(services.NewLeaseService(leases, payments)),
		Reports:  handlers.NewReportHandler(auditService),
		Excel:    handlers.NewExcelHandler(services.NewExcelService(paymentService, auditService)),
		Webhooks: handlers.NewWebhookHandler(gateways, services.NewWebhookService(payments, anomalies)),
	})
	return router
}

func do(router *gin.Engine, method, path, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set(handlers.HeaderActorID, role+"-1")
		req.Header.Set(handlers.HeaderActorRole, role)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createLease(t *testing.T, router *gin.Engine) string {
	t.Helper()
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	body := fmt.Sprintf(`{"tenantId":"tenant-1","spotId":"spot-1","propertyId":"prop-1","leaseType":"MONTHLY",
		"startDate":%q,"rentAmount":"1000","depositAmount":"500"}`, start.Format(time.RFC3339))

	w := do(router, http.MethodPost, "/api/v1/leases", "admin", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func payNow(t *testing.T, router *gin.Engine, leaseID string) string {
	t.Helper()
	w := do(router, http.MethodPost, "/api/v1/leases/"+leaseID+"/pay", "tenant", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode(t, w)
	payment := resp["payment"].(map[string]interface{})
	assert.Equal(t, "1500", payment["totalAmount"])
	assert.Equal(t, "https://pay.test/ORDER-"+payment["id"].(string), resp["url"])
	return payment["id"].(string)
}

func captureCompleted(eventID, recordID, value string) string {
	return fmt.Sprintf(`{"id":%q,"event_type":"PAYMENT.CAPTURE.COMPLETED","create_time":"2026-10-17T09:00:00Z",
		"resource":{"id":"CAP-%s","custom_id":%q,"amount":{"currency_code":"USD","value":%q}}}`, eventID, eventID, recordID, value)
}

func TestActorHeaders(t *testing.T) {
	router := setupRouter(t)

	w := do(router, http.MethodGet, "/api/v1/leases/anything", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/api/v1/leases", "tenant", `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodPost, "/api/v1/payments/sweep-overdue", "tenant", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPayNowAndWebhookFlow(t *testing.T) {
	router := setupRouter(t)
	leaseID := createLease(t, router)

	w := do(router, http.MethodGet, "/api/v1/leases/"+leaseID+"/rent", "tenant", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.ActionFirstPayment), decode(t, w)["action"])

	paymentID := payNow(t, router, leaseID)

	w = do(router, http.MethodPost, "/api/v1/webhooks/paypal", "", captureCompleted("WH-1", paymentID, "1500.00"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, string(models.ReconcileApplied), decode(t, w)["result"])

	// redelivery
	w = do(router, http.MethodPost, "/api/v1/webhooks/paypal", "", captureCompleted("WH-1", paymentID, "1500.00"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.ReconcileDuplicate), decode(t, w)["result"])

	w = do(router, http.MethodGet, "/api/v1/payments/"+paymentID, "tenant", "")
	require.Equal(t, http.StatusOK, w.Code)
	payment := decode(t, w)
	assert.Equal(t, string(models.StatusPaid), payment["status"])
	assert.Equal(t, "CAP-WH-1", payment["transactionId"])
	assert.Equal(t, false, payment["isOverdue"])

	w = do(router, http.MethodGet, "/api/v1/tenants/tenant-1/payments/summary", "tenant", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["paidCount"])

	w = do(router, http.MethodPost, "/api/v1/payments/"+paymentID+"/refund", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.StatusRefunded), decode(t, w)["status"])
}

func TestWebhookAnomaliesAreAcknowledged(t *testing.T) {
	router := setupRouter(t)

	w := do(router, http.MethodPost, "/api/v1/webhooks/paypal", "", captureCompleted("WH-2", "no-such-payment", "10.00"))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, string(models.ReconcileFlagged), resp["result"])
	assert.Equal(t, string(models.AnomalyUnmatched), resp["reason"])

	w = do(router, http.MethodPost, "/api/v1/webhooks/paypal", "", `{"id":`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.AnomalyMalformed), decode(t, w)["reason"])

	w = do(router, http.MethodPost, "/api/v1/webhooks/paypal", "", `{"id":"WH-3","event_type":"BILLING.PLAN.CREATED","resource":{}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.ReconcileIgnored), decode(t, w)["result"])

	w = do(router, http.MethodGet, "/api/v1/webhooks/anomalies", "admin", "")
	require.Equal(t, http.StatusOK, w.Code)
	var anomalies []models.WebhookAnomaly
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &anomalies))
	assert.Len(t, anomalies, 2)
}

func TestWebhookUnknownAccount(t *testing.T) {
	router := setupRouter(t)

	w := do(router, http.MethodPost, "/api/v1/webhooks/paypal/other", "", captureCompleted("WH-4", "x", "1.00"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPayNowTwiceReusesPendingRecord(t *testing.T) {
	router := setupRouter(t)
	leaseID := createLease(t, router)
	first := payNow(t, router, leaseID)

	w := do(router, http.MethodPost, "/api/v1/leases/"+leaseID+"/pay", "tenant", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, true, resp["reused"])
	assert.Equal(t, first, resp["payment"].(map[string]interface{})["id"])
}

func TestStatementExport(t *testing.T) {
	router := setupRouter(t)
	leaseID := createLease(t, router)
	payNow(t, router, leaseID)

	w := do(router, http.MethodGet, "/api/v1/tenants/tenant-1/payments/statement.xlsx", "tenant", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Statement_tenant-1_")
	assert.NotZero(t, w.Body.Len())
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t)

	w := do(router, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestDeleteLease(t *testing.T) {
	router := setupRouter(t)
	leaseID := createLease(t, router)

	w := do(router, http.MethodDelete, "/api/v1/leases/"+leaseID, "tenant", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(router, http.MethodDelete, "/api/v1/leases/"+leaseID, "admin", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Lease deleted successfully", decode(t, w)["message"])

	w = do(router, http.MethodDelete, "/api/v1/leases/"+leaseID, "admin", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the spot takes a new lease once the old one is gone
	createLease(t, router)
}

func TestListAnomaliesLimit(t *testing.T) {
	router := setupRouter(t)
	for i := 0; i < 3; i++ {
		w := do(router, http.MethodPost, "/api/v1/webhooks/paypal", "", captureCompleted(fmt.Sprintf("WH-L%d", i), "no-such-payment", "10.00"))
		require.Equal(t, http.StatusOK, w.Code)
	}

	for _, tc := range []struct {
		query string
		want  int
	}{
		{"?limit=2", 2},
		{"?limit=abc", 3},
		{"?limit=-1", 3},
		{"?limit=0", 3},
		{"?limit=100000", 3},
	} {
		w := do(router, http.MethodGet, "/api/v1/webhooks/anomalies"+tc.query, "admin", "")
		require.Equal(t, http.StatusOK, w.Code, tc.query)
		var anomalies []models.WebhookAnomaly
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &anomalies))
		assert.Len(t, anomalies, tc.want, tc.query)
	}
}

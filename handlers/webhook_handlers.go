package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/spf13/cast"

	"github.com/fadhlanhapp/rentlot-backend/gateway"
	"github.com/fadhlanhapp/rentlot-backend/models"
	"github.com/fadhlanhapp/rentlot-backend/utils"
)

const maxWebhookBody = 1 << 20

// EventSources resolves the webhook parser of a gateway account
type EventSources interface {
	EventSource(name string) (gateway.EventSource, error)
}

// Reconciler applies parsed gateway events
type Reconciler interface {
	Reconcile(ctx context.Context, event *models.GatewayEvent) (*models.ReconcileResult, error)
	FlagMalformed(ctx context.Context, payload []byte, cause error) *models.ReconcileResult
	RecordIgnored(eventType string) *models.ReconcileResult
	ListAnomalies(ctx context.Context, limit int, unreviewedOnly bool) ([]models.WebhookAnomaly, error)
}

// WebhookHandler receives gateway callbacks. Anything the gateway cannot fix
// by redelivering is acknowledged with 200; store failures answer 500.
type WebhookHandler struct {
	sources    EventSources
	reconciler Reconciler
}

func NewWebhookHandler(sources EventSources, reconciler Reconciler) *WebhookHandler {
	return &WebhookHandler{sources: sources, reconciler: reconciler}
}

// HandlePayPal handles POST /webhooks/paypal and /webhooks/paypal/:account
func (h *WebhookHandler) HandlePayPal(c *gin.Context) {
	source, err := h.sources.EventSource(c.Param("account"))
	if err != nil {
		utils.HandleError(c, utils.NewNotFoundError("Webhook account"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.HandleError(c, utils.NewBadRequestError(utils.ErrInvalidRequest))
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	ctx := c.Request.Context()
	event, err := source.ParseEvent(ctx, c.Request)
	switch {
	case err == nil:
	case errors.Is(err, gateway.ErrEventIgnored):
		utils.HandleSuccess(c, h.reconciler.RecordIgnored(payPalEventType(body)))
		return
	case errors.Is(err, gateway.ErrInvalidSignature):
		slog.Warn("[WebhookHandler] Rejected webhook with invalid signature", "account", c.Param("account"))
		utils.HandleError(c, &utils.AppError{Code: http.StatusUnauthorized, Kind: utils.KindValidation, Message: "Invalid webhook signature"})
		return
	case errors.Is(err, gateway.ErrMalformedEvent):
		result := h.reconciler.FlagMalformed(ctx, body, err)
		noticeAnomaly(c, result, err)
		utils.HandleSuccess(c, result)
		return
	default:
		slog.Error("[WebhookHandler] Failed to parse webhook", "account", c.Param("account"), "error", err)
		utils.HandleError(c, utils.NewInternalError("Failed to process webhook", err))
		return
	}

	result, err := h.reconciler.Reconcile(ctx, event)
	if err != nil {
		slog.Error("[WebhookHandler] Failed to reconcile webhook", "eventID", event.EventID, "error", err)
		utils.HandleError(c, utils.NewInternalError("Failed to process webhook", err))
		return
	}
	if result.Result == models.ReconcileFlagged {
		noticeAnomaly(c, result, fmt.Errorf("webhook %s flagged: %s", result.EventID, result.Reason))
	}
	utils.HandleSuccess(c, result)
}

const (
	defaultAnomalyLimit = 100
	maxAnomalyLimit     = 500
)

// ListAnomalies handles GET /webhooks/anomalies. A limit that is not a
// positive integer falls back to the default.
func (h *WebhookHandler) ListAnomalies(c *gin.Context) {
	limit, err := cast.ToIntE(c.DefaultQuery("limit", ""))
	if err != nil || limit <= 0 {
		limit = defaultAnomalyLimit
	}
	limit = min(limit, maxAnomalyLimit)
	unreviewed := cast.ToBool(c.DefaultQuery("unreviewed", "true"))

	anomalies, err := h.reconciler.ListAnomalies(c.Request.Context(), limit, unreviewed)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.HandleSuccess(c, anomalies)
}

func noticeAnomaly(c *gin.Context, result *models.ReconcileResult, err error) {
	if txn := nrgin.Transaction(c); txn != nil {
		txn.AddAttribute("anomalyReason", string(result.Reason))
		txn.NoticeError(err)
	}
}

func payPalEventType(body []byte) string {
	var env struct {
		EventType string `json:"event_type"`
	}
	_ = json.Unmarshal(body, &env)
	return env.EventType
}

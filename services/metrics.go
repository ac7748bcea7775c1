package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentlot_payments_created_total",
		Help: "Payment records created, by payment type.",
	}, []string{"type"})

	paymentLinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rentlot_payment_links_created_total",
		Help: "Hosted payment links created at the gateway.",
	})

	paymentLinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentlot_payment_link_failures_total",
		Help: "Failed payment link creations, by reason.",
	}, []string{"reason"})

	webhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rentlot_webhook_events_total",
		Help: "Gateway webhook events processed, by reconciliation result.",
	}, []string{"result"})
)

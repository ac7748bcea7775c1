// Package gateway adapts the hosted payment-link provider to the narrow
// contract the billing services depend on.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fadhlanhapp/rentlot-backend/models"
)

// MetadataRecordID is the metadata key that carries the payment record id
// through the provider and back in its webhooks.
const MetadataRecordID = "payment_record_id"

var (
	// ErrEventIgnored marks a webhook that is valid but needs no reconciliation
	ErrEventIgnored = errors.New("webhook event ignored")
	// ErrInvalidSignature marks a webhook whose signature did not verify
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	// ErrMalformedEvent marks a webhook body that could not be decoded
	ErrMalformedEvent = errors.New("malformed webhook event")
	// ErrUnknownAccount is returned when no account serves a property or name
	ErrUnknownAccount = errors.New("no payment gateway account configured")
)

// LinkStatus is the provider-independent state of a hosted link
type LinkStatus string

const (
	LinkOpen      LinkStatus = "OPEN"
	LinkApproved  LinkStatus = "APPROVED"
	LinkCompleted LinkStatus = "COMPLETED"
	LinkVoided    LinkStatus = "VOIDED"
)

// LinkRequest asks the provider for a payable link
type LinkRequest struct {
	AmountMinor int64
	Currency    string
	Description string
	Metadata    map[string]string
}

// RecordID returns the payment record id embedded in the metadata
func (r LinkRequest) RecordID() string {
	return r.Metadata[MetadataRecordID]
}

// Link is a hosted payment link as seen by the billing core
type Link struct {
	ID     string     `json:"id"`
	URL    string     `json:"url"`
	Status LinkStatus `json:"status"`
}

// Gateway creates and retrieves hosted payment links
type Gateway interface {
	CreateLink(ctx context.Context, req LinkRequest) (*Link, error)
	RetrieveLink(ctx context.Context, linkID string) (*Link, error)
}

// EventSource verifies an inbound webhook and reduces it to a GatewayEvent.
// It returns ErrEventIgnored for events that need no reconciliation.
type EventSource interface {
	ParseEvent(ctx context.Context, r *http.Request) (*models.GatewayEvent, error)
}

// Account is one set of provider credentials: it can create links and read its webhooks
type Account interface {
	Gateway
	EventSource
	Name() string
}

// Router resolves the account that collects payments for a property
type Router struct {
	fallback   Account
	byProperty map[string]Account
	byName     map[string]Account
}

// NewRouter creates a router. fallback may be nil when every property has an account.
func NewRouter(fallback Account) *Router {
	r := &Router{
		fallback:   fallback,
		byProperty: make(map[string]Account),
		byName:     make(map[string]Account),
	}
	if fallback != nil {
		r.byName[fallback.Name()] = fallback
	}
	return r
}

// Register routes the given properties to acct
func (r *Router) Register(acct Account, propertyIDs ...string) {
	r.byName[acct.Name()] = acct
	for _, id := range propertyIDs {
		r.byProperty[id] = acct
	}
}

// ForProperty returns the gateway that collects payments for propertyID
func (r *Router) ForProperty(propertyID string) (Gateway, error) {
	if acct, ok := r.byProperty[propertyID]; ok {
		return acct, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("property %s: %w", propertyID, ErrUnknownAccount)
}

// EventSource returns the webhook parser for a named account, or the fallback when name is empty
func (r *Router) EventSource(name string) (EventSource, error) {
	if name == "" {
		if r.fallback == nil {
			return nil, ErrUnknownAccount
		}
		return r.fallback, nil
	}
	acct, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", name, ErrUnknownAccount)
	}
	return acct, nil
}

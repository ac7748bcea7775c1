package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPayPalTestServer(t *testing.T, orders map[string]map[string]interface{}) (*httptest.Server, *[]map[string]interface{}) {
	t.Helper()
	var created []map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/oauth2/token":
			io.WriteString(w, `{"access_token":"test-token","token_type":"Bearer","expires_in":32400}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v2/checkout/orders":
			var body map[string]interface{}
			json.NewDecoder(r.Body).Decode(&body)
			created = append(created, body)
			w.WriteHeader(http.StatusCreated)
			io.WriteString(w, `{"id":"ORDER-1","status":"CREATED","links":[
				{"href":"https://api.test/v2/checkout/orders/ORDER-1","rel":"self","method":"GET"},
				{"href":"https://www.test/checkoutnow?token=ORDER-1","rel":"approve","method":"GET"}]}`)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v2/checkout/orders/"):
			id := strings.TrimPrefix(r.URL.Path, "/v2/checkout/orders/")
			order, ok := orders[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				io.WriteString(w, `{"name":"RESOURCE_NOT_FOUND","message":"not found"}`)
				return
			}
			json.NewEncoder(w).Encode(order)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &created
}

func newTestPayPal(t *testing.T, apiBase string) *PayPal {
	t.Helper()
	pp, err := NewPayPal(PayPalOptions{
		Name:         "default",
		ClientID:     "client",
		ClientSecret: "secret",
		APIBase:      apiBase,
		ReturnURL:    "https://rentlot.test/payments/return",
		CancelURL:    "https://rentlot.test/payments/cancel",
	})
	require.NoError(t, err)
	return pp
}

func TestPayPal_CreateLink(t *testing.T) {
	server, created := newPayPalTestServer(t, nil)
	pp := newTestPayPal(t, server.URL)

	link, err := pp.CreateLink(context.Background(), LinkRequest{
		AmountMinor: 98000,
		Currency:    "usd",
		Description: "Rent for October 2026",
		Metadata:    map[string]string{MetadataRecordID: "pay-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORDER-1", link.ID)
	assert.Equal(t, "https://www.test/checkoutnow?token=ORDER-1", link.URL)
	assert.Equal(t, LinkOpen, link.Status)

	require.Len(t, *created, 1)
	units := (*created)[0]["purchase_units"].([]interface{})
	unit := units[0].(map[string]interface{})
	assert.Equal(t, "pay-1", unit["custom_id"])
	assert.Equal(t, "pay-1", unit["reference_id"])
	amount := unit["amount"].(map[string]interface{})
	assert.Equal(t, "980.00", amount["value"])
	assert.Equal(t, "USD", amount["currency_code"])
}

func TestPayPal_CreateLink_RequiresRecordID(t *testing.T) {
	pp := newTestPayPal(t, "http://127.0.0.1:0")

	_, err := pp.CreateLink(context.Background(), LinkRequest{AmountMinor: 100, Currency: "USD"})
	assert.Error(t, err)
}

func TestPayPal_RetrieveLink(t *testing.T) {
	server, _ := newPayPalTestServer(t, map[string]map[string]interface{}{
		"ORDER-9": {
			"id":     "ORDER-9",
			"status": "APPROVED",
			"links": []map[string]string{
				{"href": "https://www.test/checkoutnow?token=ORDER-9", "rel": "approve", "method": "GET"},
			},
		},
	})
	pp := newTestPayPal(t, server.URL)

	link, err := pp.RetrieveLink(context.Background(), "ORDER-9")
	require.NoError(t, err)
	assert.Equal(t, LinkApproved, link.Status)
	assert.Equal(t, "https://www.test/checkoutnow?token=ORDER-9", link.URL)

	_, err = pp.RetrieveLink(context.Background(), "ORDER-missing")
	assert.Error(t, err)
}

func TestWithRecordID(t *testing.T) {
	assert.Equal(t, "https://rentlot.test/return?payment=pay-1", withRecordID("https://rentlot.test/return", "pay-1"))
	assert.Equal(t, "", withRecordID("", "pay-1"))
}

func TestRouter_ForProperty(t *testing.T) {
	fallback := newTestPayPal(t, "http://127.0.0.1:0")
	north, err := NewPayPal(PayPalOptions{Name: "north", ClientID: "c", ClientSecret: "s", APIBase: "http://127.0.0.1:0"})
	require.NoError(t, err)

	router := NewRouter(fallback)
	router.Register(north, "prop-north")

	gw, err := router.ForProperty("prop-north")
	require.NoError(t, err)
	assert.Same(t, north, gw)

	gw, err = router.ForProperty("prop-other")
	require.NoError(t, err)
	assert.Same(t, fallback, gw)

	src, err := router.EventSource("north")
	require.NoError(t, err)
	assert.Same(t, north, src)

	_, err = router.EventSource("south")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestRouter_NoFallback(t *testing.T) {
	router := NewRouter(nil)

	_, err := router.ForProperty("prop-1")
	assert.ErrorIs(t, err, ErrUnknownAccount)

	_, err = router.EventSource("")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

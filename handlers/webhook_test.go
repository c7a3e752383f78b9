package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"

	"mediquick-backend/internal/cart"
	"mediquick-backend/internal/orders"
	"mediquick-backend/internal/payments"
	"mediquick-backend/internal/stores/kafka"
)

func postWebhook(h *harness) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/payments/webhook", strings.NewReader("{}"))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func TestWebhookPlacesOrderAndClearsCart(t *testing.T) {
	h := newHarness(t)

	items := []payments.LineItem{
		{MedicineID: "m1", Name: "Paracetamol", PricePaise: 2995, Quantity: 2},
		{MedicineID: "m2", Name: "Vitamin C", PricePaise: 1500, Quantity: 1},
	}
	h.gateway.event = completedEvent(t, "cs_test_1", "u1", items, 7690, "buyer@example.com")
	h.carts.carts["u1"] = cart.Cart{UserID: "u1", TotalPaise: 7490}

	w := postWebhook(h)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received": true}`, w.Body.String())

	require.Len(t, h.orders.placed, 1)
	placed := h.orders.placed[0]
	assert.Equal(t, "u1", placed.UserID)
	assert.Equal(t, "cs_test_1", placed.StripeSessionID)
	assert.Equal(t, int64(7690), placed.TotalPaise)
	require.Len(t, placed.Lines, 2)
	assert.Equal(t, orders.Line{MedicineID: "m1", Quantity: 2}, placed.Lines[0])

	assert.Equal(t, []string{"u1"}, h.carts.cleared)

	require.Len(t, h.producer.values, 1)
	assert.Equal(t, kafka.TopicOrderPlaced, h.producer.topics[0])
	var ev kafka.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(h.producer.values[0], &ev))
	assert.Equal(t, placed.ID, ev.OrderID)
	assert.Equal(t, "buyer@example.com", ev.Email)
	assert.Equal(t, int64(7690), ev.TotalPaise)
}

func TestWebhookDuplicateDeliveryAcked(t *testing.T) {
	h := newHarness(t)

	items := []payments.LineItem{{MedicineID: "m1", Name: "Paracetamol", PricePaise: 2995, Quantity: 1}}
	h.gateway.event = completedEvent(t, "cs_test_dup", "u1", items, 5000, "")
	h.orders.placeErr = orders.ErrDuplicateSession

	w := postWebhook(h)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received": true}`, w.Body.String())
	assert.Empty(t, h.orders.placed)
	assert.Empty(t, h.carts.cleared, "cart must survive a duplicate delivery")
	assert.Empty(t, h.producer.values)
}

func TestWebhookInsufficientStockAckedWithoutSideEffects(t *testing.T) {
	h := newHarness(t)

	items := []payments.LineItem{{MedicineID: "m1", Name: "Paracetamol", PricePaise: 2995, Quantity: 99}}
	h.gateway.event = completedEvent(t, "cs_test_short", "u1", items, 296505, "")
	h.carts.carts["u1"] = cart.Cart{UserID: "u1"}
	h.orders.placeErr = orders.ErrInsufficientStock

	w := postWebhook(h)

	assert.Equal(t, http.StatusOK, w.Code, "payment already happened, never make Stripe retry")
	assert.Empty(t, h.carts.cleared, "cart must survive a failed placement")
	assert.Empty(t, h.producer.values)
}

func TestWebhookBadSignatureRejected(t *testing.T) {
	h := newHarness(t)
	h.gateway.verifyErr = errors.New("signature mismatch")

	w := postWebhook(h)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, h.orders.placed)
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	h := newHarness(t)
	h.gateway.event = stripe.Event{Type: "payment_intent.created", Data: &stripe.EventData{Raw: []byte(`{}`)}}

	w := postWebhook(h)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, h.orders.placed)
}

func TestWebhookMissingUserAcked(t *testing.T) {
	h := newHarness(t)
	h.gateway.event = completedEvent(t, "cs_test_nouser", "", nil, 5000, "")

	w := postWebhook(h)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, h.orders.placed)
}

package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediquick-backend/internal/cart"
	"mediquick-backend/internal/payments"
	"mediquick-backend/internal/users"
)

func postCheckout(h *harness, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func TestCheckoutUsesStoredCartSnapshots(t *testing.T) {
	h := newHarness(t)
	h.users.byID["u1"] = users.User{ID: "u1", Email: "buyer@example.com"}
	h.carts.carts["u1"] = cart.Cart{
		UserID: "u1",
		Items: []cart.Item{
			{MedicineID: "m1", Name: "Paracetamol", PricePaise: 2995, Quantity: 2},
			{MedicineID: "m2", Name: "Vitamin C", PricePaise: 1500, Quantity: 1},
		},
		TotalPaise: 7490,
	}
	h.gateway.session = payments.Session{ID: "cs_test_1", URL: "https://checkout.stripe.com/pay/cs_test_1"}

	w := postCheckout(h, h.token(t, "u1"), `{"delivery_fee_paise": 100, "tax_paise": 100}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cs_test_1")

	req := h.gateway.createReq
	assert.Equal(t, "u1", req.UserID)
	assert.Equal(t, "buyer@example.com", req.Email)
	require.Len(t, req.Items, 2)
	assert.Equal(t, int64(2995), req.Items[0].PricePaise, "price comes from the stored snapshot")
	assert.Equal(t, int64(100), req.DeliveryFeePaise)
	assert.Equal(t, int64(7690), payments.RealTotalPaise(req))
}

func TestCheckoutEmptyCartRejected(t *testing.T) {
	h := newHarness(t)
	h.users.byID["u1"] = users.User{ID: "u1", Email: "buyer@example.com"}

	w := postCheckout(h, h.token(t, "u1"), "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Cart is empty")
}

func TestCheckoutGatewayFailure(t *testing.T) {
	h := newHarness(t)
	h.users.byID["u1"] = users.User{ID: "u1", Email: "buyer@example.com"}
	h.carts.carts["u1"] = cart.Cart{
		UserID: "u1",
		Items:  []cart.Item{{MedicineID: "m1", Name: "Paracetamol", PricePaise: 2995, Quantity: 1}},
	}
	h.gateway.createErr = errors.New("stripe unavailable")

	w := postCheckout(h, h.token(t, "u1"), "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCheckoutRequiresAuthentication(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/checkout", strings.NewReader(""))
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
)

func testConf(t *testing.T) *Conf {
	t.Helper()
	c, err := NewConf("sk_test_x", "whsec_test", "https://shop.test/success", "https://shop.test/cancel", 5000)
	require.NoError(t, err)
	return c
}

func TestRealTotalPaise(t *testing.T) {
	req := CheckoutRequest{
		Items: []LineItem{
			{MedicineID: "a", Name: "A", PricePaise: 3000, Quantity: 2},
			{MedicineID: "b", Name: "B", PricePaise: 800, Quantity: 1},
		},
		DeliveryFeePaise: 1500,
		TaxPaise:         190,
	}
	assert.Equal(t, int64(7690), RealTotalPaise(req))
}

func TestSessionMetadataCarriesRealTotal(t *testing.T) {
	c := testConf(t)
	req := CheckoutRequest{
		UserID: "user-1",
		Items: []LineItem{
			{MedicineID: "a", Name: "A", PricePaise: 3000, Quantity: 2},
			{MedicineID: "b", Name: "B", PricePaise: 800, Quantity: 1},
		},
		DeliveryFeePaise: 1500,
		TaxPaise:         190,
	}

	params, err := c.buildSessionParams(req)
	require.NoError(t, err)

	assert.Equal(t, "user-1", params.Metadata["user_id"])
	assert.Equal(t, "7690", params.Metadata["total_amount_paise"])

	// Two medicine lines plus delivery fee and tax, no top-up above minimum.
	require.Len(t, params.LineItems, 4)

	var items []LineItem
	require.NoError(t, json.Unmarshal([]byte(params.Metadata["cart"]), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].MedicineID)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestSubMinimumCartGetsTopUpLineOnly(t *testing.T) {
	c := testConf(t)
	req := CheckoutRequest{
		UserID: "user-1",
		Items:  []LineItem{{MedicineID: "a", Name: "A", PricePaise: 2000, Quantity: 1}},
	}

	params, err := c.buildSessionParams(req)
	require.NoError(t, err)

	// Real item plus the synthesized top-up closing the 3000 paise gap.
	require.Len(t, params.LineItems, 2)
	topUp := params.LineItems[1]
	assert.Equal(t, int64(3000), *topUp.PriceData.UnitAmount)

	// The authoritative total excludes the top-up.
	assert.Equal(t, "2000", params.Metadata["total_amount_paise"])
	var items []LineItem
	require.NoError(t, json.Unmarshal([]byte(params.Metadata["cart"]), &items))
	assert.Len(t, items, 1)
}

func TestAtMinimumCartGetsNoTopUp(t *testing.T) {
	c := testConf(t)
	req := CheckoutRequest{
		UserID: "user-1",
		Items:  []LineItem{{MedicineID: "a", Name: "A", PricePaise: 5000, Quantity: 1}},
	}

	params, err := c.buildSessionParams(req)
	require.NoError(t, err)
	assert.Len(t, params.LineItems, 1)
}

func completedSessionEvent(t *testing.T, sessionID string) stripe.Event {
	t.Helper()
	cartJSON, err := json.Marshal([]LineItem{
		{MedicineID: "a", Name: "A", PricePaise: 3000, Quantity: 2},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{
		"id":               sessionID,
		"customer_details": map[string]any{"email": "buyer@example.com"},
		"metadata": map[string]string{
			"user_id":            "user-1",
			"cart":               string(cartJSON),
			"total_amount_paise": "6000",
		},
	})
	require.NoError(t, err)

	return stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestParseCompletedCheckout(t *testing.T) {
	cc, err := ParseCompletedCheckout(completedSessionEvent(t, "cs_test_1"))
	require.NoError(t, err)

	assert.Equal(t, "cs_test_1", cc.SessionID)
	assert.Equal(t, "user-1", cc.UserID)
	assert.Equal(t, "buyer@example.com", cc.Email)
	assert.Equal(t, int64(6000), cc.TotalPaise)
	require.Len(t, cc.Items, 1)
	assert.Equal(t, 2, cc.Items[0].Quantity)
}

func TestParseCompletedCheckoutMissingUser(t *testing.T) {
	raw, err := json.Marshal(map[string]any{"id": "cs_test_2"})
	require.NoError(t, err)

	cc, err := ParseCompletedCheckout(stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	})
	require.NoError(t, err)
	assert.Empty(t, cc.UserID)
}

// signPayload builds a Stripe-Signature header the way Stripe does: a
// timestamp and an HMAC-SHA256 of "<timestamp>.<payload>" under the secret.
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyEventAcceptsValidSignature(t *testing.T) {
	c := testConf(t)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)

	event, err := c.VerifyEvent(payload, signPayload(payload, "whsec_test", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, "checkout.session.completed", string(event.Type))
}

func TestVerifyEventRejectsBadSignature(t *testing.T) {
	c := testConf(t)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	_, err := c.VerifyEvent(payload, signPayload(payload, "whsec_wrong", time.Now()))
	assert.Error(t, err)

	_, err = c.VerifyEvent(payload, "garbage")
	assert.Error(t, err)
}

func TestVerifyEventRejectsStaleTimestamp(t *testing.T) {
	c := testConf(t)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)

	_, err := c.VerifyEvent(payload, signPayload(payload, "whsec_test", time.Now().Add(-time.Hour)))
	assert.Error(t, err)
}

// Package payments wraps the Stripe hosted-checkout integration: building
// sessions for the cart and verifying/decoding the completion webhook.
//
// The session metadata is the only channel through which the webhook later
// learns what was purchased, so it always carries the real cart and the real
// total; the top-up line item synthesized for sub-minimum carts exists only
// on the hosted payment page.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"
)

// DefaultMinOrderPaise is Stripe's practical minimum charge for INR,
// matching the storefront's Rs 50 floor.
const DefaultMinOrderPaise int64 = 5000

const (
	metaUserID     = "user_id"
	metaCart       = "cart"
	metaTotalPaise = "total_amount_paise"
)

// LineItem is one real cart line going into a checkout session.
type LineItem struct {
	MedicineID string `json:"medicine_id"`
	Name       string `json:"name"`
	PricePaise int64  `json:"price_paise"`
	Quantity   int    `json:"quantity"`
	ImageURL   string `json:"-"`
}

// CheckoutRequest is everything needed to open a session.
type CheckoutRequest struct {
	UserID           string
	Email            string
	Items            []LineItem
	DeliveryFeePaise int64
	TaxPaise         int64
}

// Session is the handle the client redirects to.
type Session struct {
	ID  string `json:"session_id"`
	URL string `json:"url"`
}

// CompletedCheckout is what the webhook reconstructs from a
// checkout.session.completed event's metadata.
type CompletedCheckout struct {
	SessionID  string
	UserID     string
	Email      string
	Items      []LineItem
	TotalPaise int64
}

// Gateway is the processor surface the handlers depend on.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (Session, error)
	VerifyEvent(payload []byte, signature string) (stripe.Event, error)
}

// Conf implements Gateway against Stripe.
type Conf struct {
	webhookSecret string
	minOrderPaise int64
	successURL    string
	cancelURL     string
}

func NewConf(apiKey, webhookSecret, successURL, cancelURL string, minOrderPaise int64) (*Conf, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stripe api key is empty")
	}
	if webhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret is empty")
	}
	if minOrderPaise <= 0 {
		minOrderPaise = DefaultMinOrderPaise
	}
	stripe.Key = apiKey
	return &Conf{
		webhookSecret: webhookSecret,
		minOrderPaise: minOrderPaise,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}, nil
}

// RealTotalPaise is the authoritative order total: item prices times
// quantities plus delivery fee and tax, excluding any top-up.
func RealTotalPaise(req CheckoutRequest) int64 {
	total := req.DeliveryFeePaise + req.TaxPaise
	for _, item := range req.Items {
		total += item.PricePaise * int64(item.Quantity)
	}
	return total
}

// CreateCheckoutSession opens a hosted session and returns its id and URL.
// No local state is mutated; the order exists only once the webhook lands.
func (c *Conf) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (Session, error) {
	if len(req.Items) == 0 {
		return Session{}, fmt.Errorf("cart is empty")
	}

	params, err := c.buildSessionParams(req)
	if err != nil {
		return Session{}, err
	}
	params.Context = ctx

	s, err := session.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("creating checkout session: %w", err)
	}
	return Session{ID: s.ID, URL: s.URL}, nil
}

// buildSessionParams assembles line items, the top-up when the real total is
// below the processor minimum, and the metadata carrying the real cart.
func (c *Conf) buildSessionParams(req CheckoutRequest) (*stripe.CheckoutSessionParams, error) {
	var lineItems []*stripe.CheckoutSessionLineItemParams
	for _, item := range req.Items {
		var images []*string
		if item.ImageURL != "" {
			images = []*string{stripe.String(item.ImageURL)}
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyINR)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:   stripe.String(item.Name),
					Images: images,
				},
				UnitAmount: stripe.Int64(item.PricePaise),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}
	for _, extra := range []struct {
		name  string
		paise int64
	}{
		{"Delivery fee", req.DeliveryFeePaise},
		{"Tax", req.TaxPaise},
	} {
		if extra.paise > 0 {
			lineItems = append(lineItems, fixedLineItem(extra.name, extra.paise))
		}
	}

	realTotal := RealTotalPaise(req)
	if topUp := c.minOrderPaise - realTotal; topUp > 0 {
		// Visible only on the hosted page; never persisted to the order.
		lineItems = append(lineItems, fixedLineItem("Order minimum top-up", topUp))
	}

	cartJSON, err := json.Marshal(req.Items)
	if err != nil {
		return nil, fmt.Errorf("marshaling cart metadata: %w", err)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:          lineItems,
		SuccessURL:         stripe.String(c.successURL),
		CancelURL:          stripe.String(c.cancelURL),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata(metaUserID, req.UserID)
	params.AddMetadata(metaCart, string(cartJSON))
	params.AddMetadata(metaTotalPaise, strconv.FormatInt(realTotal, 10))
	return params, nil
}

func fixedLineItem(name string, paise int64) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(string(stripe.CurrencyINR)),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
			UnitAmount: stripe.Int64(paise),
		},
		Quantity: stripe.Int64(1),
	}
}

// VerifyEvent checks the Stripe-Signature header against the shared secret.
// Nothing in the payload may be trusted before this passes.
func (c *Conf) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("verifying webhook signature: %w", err)
	}
	return event, nil
}

// ParseCompletedCheckout extracts the purchase from a verified
// checkout.session.completed event.
func ParseCompletedCheckout(event stripe.Event) (CompletedCheckout, error) {
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return CompletedCheckout{}, fmt.Errorf("decoding checkout session: %w", err)
	}

	cc := CompletedCheckout{
		SessionID: s.ID,
		UserID:    s.Metadata[metaUserID],
		Email:     s.CustomerEmail,
	}
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		cc.Email = s.CustomerDetails.Email
	}

	if raw := s.Metadata[metaCart]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &cc.Items); err != nil {
			return CompletedCheckout{}, fmt.Errorf("decoding cart metadata: %w", err)
		}
	}
	if raw := s.Metadata[metaTotalPaise]; raw != "" {
		total, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return CompletedCheckout{}, fmt.Errorf("decoding total metadata: %w", err)
		}
		cc.TotalPaise = total
	}

	if cc.SessionID == "" {
		return CompletedCheckout{}, errors.New("event carries no session id")
	}
	return cc, nil
}

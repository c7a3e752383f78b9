package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediquick-backend/internal/payments"
	"mediquick-backend/internal/users"
	"mediquick-backend/pkg/logkey"
)

type checkoutRequest struct {
	DeliveryFeePaise int64 `json:"delivery_fee_paise" validate:"min=0"`
	TaxPaise         int64 `json:"tax_paise" validate:"min=0"`
}

// Checkout opens a Stripe session for the user's persisted cart. Prices come
// from the stored snapshots; nothing the client sends can change them. No
// order exists until the completion webhook lands.
func (h *handler) Checkout(c *gin.Context) {
	traceID := traceIDOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		abortUnauthenticated(c, traceID)
		return
	}

	var req checkoutRequest
	if c.Request.ContentLength > 0 {
		if !h.bindAndValidate(c, traceID, &req) {
			return
		}
	}

	userCart, err := h.carts.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching cart for checkout",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		return
	}
	if len(userCart.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), claims.Subject)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		slog.Error("error fetching user for checkout",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
		return
	}

	items := make([]payments.LineItem, 0, len(userCart.Items))
	for _, item := range userCart.Items {
		items = append(items, payments.LineItem{
			MedicineID: item.MedicineID,
			Name:       item.Name,
			PricePaise: item.PricePaise,
			Quantity:   item.Quantity,
			ImageURL:   item.ImageURL,
		})
	}

	session, err := h.gateway.CreateCheckoutSession(c.Request.Context(), payments.CheckoutRequest{
		UserID:           claims.Subject,
		Email:            user.Email,
		Items:            items,
		DeliveryFeePaise: req.DeliveryFeePaise,
		TaxPaise:         req.TaxPaise,
	})
	if err != nil {
		slog.Error("error creating checkout session",
			slog.String(logkey.TraceID, traceID),
			slog.String(logkey.UserID, claims.Subject),
			slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not start checkout"})
		return
	}

	slog.Info("checkout session created",
		slog.String(logkey.TraceID, traceID),
		slog.String(logkey.UserID, claims.Subject),
		slog.String(logkey.SessionID, session.ID))

	c.JSON(http.StatusOK, session)
}

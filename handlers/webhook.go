package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mediquick-backend/internal/orders"
	"mediquick-backend/internal/payments"
	"mediquick-backend/internal/stores/kafka"
	"mediquick-backend/pkg/logkey"
)

const webhookBodyLimit = 64 * 1024

// StripeWebhook is the only writer of orders. Every verified event is
// acknowledged with 200 regardless of business outcome, because Stripe
// retries non-2xx deliveries and the money has already moved; only a bad
// signature earns a 400. Failures after verification are logged with enough
// detail to reconcile by hand.
func (h *handler) StripeWebhook(c *gin.Context) {
	traceID := traceIDOf(c)

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit))
	if err != nil {
		slog.Error("error reading webhook payload",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read payload"})
		return
	}

	event, err := h.gateway.VerifyEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		slog.Error("webhook signature verification failed",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
		return
	}

	if event.Type != "checkout.session.completed" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	completed, err := payments.ParseCompletedCheckout(event)
	if err != nil {
		slog.Error("error decoding completed checkout",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if completed.UserID == "" {
		slog.Error("completed checkout carries no user id",
			slog.String(logkey.TraceID, traceID),
			slog.String(logkey.SessionID, completed.SessionID))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	lines := make([]orders.Line, 0, len(completed.Items))
	for _, item := range completed.Items {
		lines = append(lines, orders.Line{MedicineID: item.MedicineID, Quantity: item.Quantity})
	}

	order := orders.PlacedOrder{
		ID:              uuid.NewString(),
		UserID:          completed.UserID,
		StripeSessionID: completed.SessionID,
		Lines:           lines,
		TotalPaise:      completed.TotalPaise,
	}

	err = h.orders.PlaceOrder(c.Request.Context(), order)
	switch {
	case errors.Is(err, orders.ErrDuplicateSession):
		slog.Info("duplicate webhook delivery, order already placed",
			slog.String(logkey.TraceID, traceID),
			slog.String(logkey.SessionID, completed.SessionID))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	case err != nil:
		// Payment succeeded but the order could not be placed. This needs
		// manual reconciliation, so log everything identifying the purchase.
		slog.Error("paid checkout could not be fulfilled",
			slog.String(logkey.TraceID, traceID),
			slog.String(logkey.SessionID, completed.SessionID),
			slog.String(logkey.UserID, completed.UserID),
			slog.Int64("total_paise", completed.TotalPaise),
			slog.Any("items", completed.Items),
			slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	slog.Info("order placed",
		slog.String(logkey.TraceID, traceID),
		slog.String(logkey.OrderID, order.ID),
		slog.String(logkey.UserID, order.UserID),
		slog.String(logkey.SessionID, order.StripeSessionID))

	// Post-commit effects. The order stands even if these fail.
	if err := h.carts.Clear(c.Request.Context(), completed.UserID); err != nil {
		slog.Error("error clearing cart after order",
			slog.String(logkey.TraceID, traceID),
			slog.String(logkey.UserID, completed.UserID),
			slog.String(logkey.ERROR, err.Error()))
	}
	h.publishOrderPlaced(c, traceID, order, completed)

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *handler) publishOrderPlaced(c *gin.Context, traceID string, order orders.PlacedOrder, completed payments.CompletedCheckout) {
	if h.producer == nil {
		return
	}

	items := make([]kafka.OrderPlacedItem, 0, len(completed.Items))
	for _, item := range completed.Items {
		items = append(items, kafka.OrderPlacedItem{
			MedicineID: item.MedicineID,
			Name:       item.Name,
			PricePaise: item.PricePaise,
			Quantity:   item.Quantity,
		})
	}

	ev := kafka.OrderPlacedEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		Email:      completed.Email,
		Items:      items,
		TotalPaise: order.TotalPaise,
		CreatedAt:  time.Now().UTC(),
	}
	value, err := json.Marshal(ev)
	if err != nil {
		slog.Error("error encoding order-placed event",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		return
	}

	err = h.producer.ProduceMessage(c.Request.Context(), kafka.TopicOrderPlaced, []byte(order.ID), value)
	if err != nil {
		slog.Error("error publishing order-placed event",
			slog.String(logkey.TraceID, traceID),
			slog.String(logkey.OrderID, order.ID),
			slog.String(logkey.ERROR, err.Error()))
	}
}

package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"mediquick-backend/internal/stores/kafka"
	"mediquick-backend/pkg/logkey"
)

// Consumer is the slice of the kafka client the worker needs.
type Consumer interface {
	Consume(ctx context.Context, fn func(key, value []byte)) error
}

// RunWorker consumes order-placed events and mails confirmations until the
// context is cancelled. Every failure is logged and swallowed; the order is
// already committed.
func RunWorker(ctx context.Context, consumer Consumer, mailer Mailer) {
	err := consumer.Consume(ctx, func(key, value []byte) {
		var ev kafka.OrderPlacedEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			slog.Error("decoding order-placed event", slog.String(logkey.ERROR, err.Error()))
			return
		}
		if ev.Email == "" {
			slog.Info("order-placed event without email, skipping mail",
				slog.String(logkey.OrderID, ev.OrderID))
			return
		}

		eta := DeliveryETA(time.Now())
		if err := mailer.SendOrderConfirmation(ev.Email, ev, eta); err != nil {
			slog.Error("sending order confirmation",
				slog.String(logkey.OrderID, ev.OrderID), slog.String(logkey.ERROR, err.Error()))
			return
		}
		slog.Info("order confirmation sent", slog.String(logkey.OrderID, ev.OrderID))
	})
	if err != nil && ctx.Err() == nil {
		slog.Error("notification worker stopped", slog.String(logkey.ERROR, err.Error()))
	}
}

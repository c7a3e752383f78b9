package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediquick-backend/pkg/logkey"
)

// GetMyOrders serves the user's order history, newest first.
func (h *handler) GetMyOrders(c *gin.Context) {
	traceID := traceIDOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		abortUnauthenticated(c, traceID)
		return
	}

	list, err := h.orders.ListUserOrders(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error listing orders",
			slog.String(logkey.TraceID, traceID),
			slog.String(logkey.UserID, claims.Subject),
			slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": list})
}

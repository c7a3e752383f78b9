package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mediquick-backend/internal/medicines"
	"mediquick-backend/pkg/logkey"
)

// Inventory lists the whole catalog with stock levels for the admin console.
func (h *handler) Inventory(c *gin.Context) {
	traceID := traceIDOf(c)

	list, err := h.medicines.Inventory(c.Request.Context())
	if err != nil {
		slog.Error("error listing inventory",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list inventory"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inventory": list})
}

// LowStock lists medicines whose stock sits strictly between zero and the
// threshold. The threshold defaults to the catalog-wide constant.
func (h *handler) LowStock(c *gin.Context) {
	traceID := traceIDOf(c)

	threshold := medicines.LowStockThreshold
	if raw := c.Query("threshold"); raw != "" {
		t, err := strconv.Atoi(raw)
		if err != nil || t < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a positive integer"})
			return
		}
		threshold = t
	}

	list, err := h.medicines.LowStock(c.Request.Context(), threshold)
	if err != nil {
		slog.Error("error listing low stock",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list low stock"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"low_stock": list, "threshold": threshold})
}

type setStockRequest struct {
	Stock *int `json:"stock" validate:"required,min=0"`
}

// SetStock overwrites a medicine's stock level and recomputes its
// availability flags.
func (h *handler) SetStock(c *gin.Context) {
	traceID := traceIDOf(c)
	id := c.Param("id")

	var req setStockRequest
	if !h.bindAndValidate(c, traceID, &req) {
		return
	}

	med, err := h.medicines.SetStock(c.Request.Context(), id, *req.Stock)
	if err != nil {
		if errors.Is(err, medicines.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Medicine not found"})
			return
		}
		slog.Error("error setting stock",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stock update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medicine": med})
}

type restockRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// Restock adds a positive quantity on top of the current stock.
func (h *handler) Restock(c *gin.Context) {
	traceID := traceIDOf(c)
	id := c.Param("id")

	var req restockRequest
	if !h.bindAndValidate(c, traceID, &req) {
		return
	}

	med, err := h.medicines.Restock(c.Request.Context(), id, req.Quantity)
	if err != nil {
		if errors.Is(err, medicines.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Medicine not found"})
			return
		}
		slog.Error("error restocking medicine",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Restock failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medicine": med})
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"mediquick-backend/internal/cart"
	"mediquick-backend/internal/medicines"
	"mediquick-backend/pkg/logkey"
)

func (h *handler) GetCart(c *gin.Context) {
	traceID := traceIDOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		abortUnauthenticated(c, traceID)
		return
	}

	userCart, err := h.carts.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching cart",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": userCart})
}

type addCartItemRequest struct {
	MedicineID string `json:"medicine_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

// AddCartItem snapshots the medicine's current name and price into the cart.
// The snapshot, not the client payload, is what checkout later charges.
func (h *handler) AddCartItem(c *gin.Context) {
	traceID := traceIDOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		abortUnauthenticated(c, traceID)
		return
	}

	var req addCartItemRequest
	if !h.bindAndValidate(c, traceID, &req) {
		return
	}

	med, err := h.medicines.GetByID(c.Request.Context(), req.MedicineID)
	if err != nil {
		if errors.Is(err, medicines.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Medicine not found"})
			return
		}
		slog.Error("error fetching medicine for cart",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not add to cart"})
		return
	}
	if med.Stock <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Medicine is out of stock"})
		return
	}

	userCart, err := h.carts.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching cart",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not add to cart"})
		return
	}

	userCart.AddItem(med, req.Quantity)

	if err := h.carts.Save(c.Request.Context(), userCart); err != nil {
		slog.Error("error saving cart",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not add to cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": userCart})
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

func (h *handler) UpdateCartItem(c *gin.Context) {
	traceID := traceIDOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		abortUnauthenticated(c, traceID)
		return
	}

	var req updateCartItemRequest
	if !h.bindAndValidate(c, traceID, &req) {
		return
	}

	userCart, err := h.carts.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching cart",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update cart"})
		return
	}

	if err := userCart.UpdateQuantity(c.Param("medicineID"), req.Quantity); err != nil {
		if errors.Is(err, cart.ErrItemNotInCart) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not in cart"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update cart"})
		return
	}

	if err := h.carts.Save(c.Request.Context(), userCart); err != nil {
		slog.Error("error saving cart",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": userCart})
}

func (h *handler) RemoveCartItem(c *gin.Context) {
	traceID := traceIDOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		abortUnauthenticated(c, traceID)
		return
	}

	userCart, err := h.carts.Get(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching cart",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update cart"})
		return
	}

	if err := userCart.RemoveItem(c.Param("medicineID")); err != nil {
		if errors.Is(err, cart.ErrItemNotInCart) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not in cart"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update cart"})
		return
	}

	if err := h.carts.Save(c.Request.Context(), userCart); err != nil {
		slog.Error("error saving cart",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cart": userCart})
}

func (h *handler) ClearCart(c *gin.Context) {
	traceID := traceIDOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		abortUnauthenticated(c, traceID)
		return
	}

	if err := h.carts.Clear(c.Request.Context(), claims.Subject); err != nil {
		slog.Error("error clearing cart",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not clear cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

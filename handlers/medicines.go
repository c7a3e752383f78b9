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

// ListMedicines serves the storefront catalog with optional category filter
// and pagination.
func (h *handler) ListMedicines(c *gin.Context) {
	traceID := traceIDOf(c)

	category := c.Query("category")
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	list, err := h.medicines.List(c.Request.Context(), category, page, pageSize)
	if err != nil {
		slog.Error("error listing medicines",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list medicines"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medicines": list, "page": page, "page_size": pageSize})
}

// GetMedicine serves the details page: catalog row joined with the
// descriptive record.
func (h *handler) GetMedicine(c *gin.Context) {
	traceID := traceIDOf(c)
	id := c.Param("id")

	combined, err := h.medicines.GetCombined(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, medicines.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Medicine not found"})
			return
		}
		slog.Error("error fetching medicine",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch medicine"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medicine": combined})
}

func (h *handler) CreateMedicine(c *gin.Context) {
	traceID := traceIDOf(c)

	var nm medicines.NewMedicine
	if !h.bindAndValidate(c, traceID, &nm) {
		return
	}

	med, err := h.medicines.Insert(c.Request.Context(), nm)
	if err != nil {
		slog.Error("error inserting medicine",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Medicine creation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"medicine": med})
}

func (h *handler) UpdateMedicine(c *gin.Context) {
	traceID := traceIDOf(c)
	id := c.Param("id")

	var um medicines.UpdateMedicine
	if !h.bindAndValidate(c, traceID, &um) {
		return
	}

	med, err := h.medicines.Update(c.Request.Context(), id, um)
	if err != nil {
		if errors.Is(err, medicines.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Medicine not found"})
			return
		}
		slog.Error("error updating medicine",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Medicine update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medicine": med})
}

func (h *handler) DeleteMedicine(c *gin.Context) {
	traceID := traceIDOf(c)
	id := c.Param("id")

	err := h.medicines.Delete(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, medicines.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Medicine not found"})
			return
		}
		slog.Error("error deleting medicine",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Medicine deletion failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Medicine deleted"})
}

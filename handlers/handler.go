// Package handlers wires the HTTP surface: route table, request decoding and
// validation, and translation of domain errors into responses.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"mediquick-backend/internal/auth"
	"mediquick-backend/internal/cart"
	"mediquick-backend/internal/chatbot"
	"mediquick-backend/internal/medicines"
	"mediquick-backend/internal/orders"
	"mediquick-backend/internal/payments"
	"mediquick-backend/internal/users"
	"mediquick-backend/middleware"
	"mediquick-backend/pkg/ctxmanage"
	"mediquick-backend/pkg/logkey"
)

// EventProducer is the slice of the kafka client the webhook handler uses.
// A nil producer disables event publishing.
type EventProducer interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte) error
}

// Config collects every dependency the HTTP layer needs.
type Config struct {
	Users     users.Store
	Medicines medicines.Store
	Carts     cart.Store
	Orders    orders.Store
	Chats     chatbot.Store
	Gateway   payments.Gateway
	Producer  EventProducer
	Keys      *auth.Keys
}

type handler struct {
	users     users.Store
	medicines medicines.Store
	carts     cart.Store
	orders    orders.Store
	chats     chatbot.Store
	gateway   payments.Gateway
	producer  EventProducer
	keys      *auth.Keys
	validate  *validator.Validate
}

// API builds the gin engine with the full route table.
func API(cfg Config) (*gin.Engine, error) {
	if cfg.Users == nil || cfg.Medicines == nil || cfg.Carts == nil ||
		cfg.Orders == nil || cfg.Chats == nil || cfg.Gateway == nil || cfg.Keys == nil {
		return nil, fmt.Errorf("handlers config is missing a dependency")
	}

	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	m, err := middleware.NewMid(cfg.Keys)
	if err != nil {
		return nil, err
	}

	h := handler{
		users:     cfg.Users,
		medicines: cfg.Medicines,
		carts:     cfg.Carts,
		orders:    cfg.Orders,
		chats:     cfg.Chats,
		gateway:   cfg.Gateway,
		producer:  cfg.Producer,
		keys:      cfg.Keys,
		validate:  validator.New(),
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Session-Id")

	r.Use(middleware.Logger(), gin.Recovery(), cors.New(corsConfig))
	r.GET("/ping", healthCheck)

	v1 := r.Group("/v1")
	{
		v1.POST("/users/signup", h.Signup)
		v1.POST("/users/login", h.Login)

		v1.GET("/medicines/list", h.ListMedicines)
		v1.GET("/medicines/view/:id", h.GetMedicine)

		v1.POST("/chat", h.Chat)
		v1.GET("/chat/history", h.ChatHistory)

		// Stripe calls this; it authenticates with its signature header,
		// never with a bearer token.
		v1.POST("/payments/webhook", h.StripeWebhook)

		v1.Use(m.Authentication())

		v1.GET("/users/profile", h.GetProfile)
		v1.PUT("/users/profile", h.UpdateProfile)

		v1.GET("/cart", h.GetCart)
		v1.POST("/cart/items", h.AddCartItem)
		v1.PUT("/cart/items/:medicineID", h.UpdateCartItem)
		v1.DELETE("/cart/items/:medicineID", h.RemoveCartItem)
		v1.DELETE("/cart", h.ClearCart)

		v1.POST("/checkout", h.Checkout)
		v1.GET("/orders", h.GetMyOrders)

		v1.POST("/medicines/create", m.Authorize(h.CreateMedicine, auth.RoleAdmin))
		v1.PUT("/medicines/update/:id", m.Authorize(h.UpdateMedicine, auth.RoleAdmin))
		v1.DELETE("/medicines/delete/:id", m.Authorize(h.DeleteMedicine, auth.RoleAdmin))

		v1.GET("/inventory", m.Authorize(h.Inventory, auth.RoleAdmin))
		v1.GET("/inventory/low-stock", m.Authorize(h.LowStock, auth.RoleAdmin))
		v1.PUT("/inventory/:id/stock", m.Authorize(h.SetStock, auth.RoleAdmin))
		v1.POST("/inventory/:id/restock", m.Authorize(h.Restock, auth.RoleAdmin))
	}

	return r, nil
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

// currentClaims pulls the authenticated claims stored by the middleware.
func currentClaims(c *gin.Context) (auth.Claims, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	return claims, ok
}

// bindAndValidate decodes the body into val and validates it, writing the
// error response itself. Returns false when the request was rejected.
func (h *handler) bindAndValidate(c *gin.Context, traceID string, val any) bool {
	if c.Request.ContentLength > 5*1024 {
		slog.Error("request body limit breached",
			slog.String(logkey.TraceID, traceID),
			slog.Int64("size_received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return false
	}

	if err := c.ShouldBindJSON(val); err != nil {
		slog.Error("json decoding error",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest,
			gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return false
	}

	if err := h.validate.Struct(val); err != nil {
		slog.Error("validation failed",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))

		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			vErr := vErrs[0]
			msg := http.StatusText(http.StatusBadRequest)
			switch vErr.Tag() {
			case "required":
				msg = vErr.Field() + " value missing"
			case "min":
				msg = vErr.Field() + " value is less than " + vErr.Param()
			case "email":
				msg = vErr.Field() + " is not a valid email address"
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
			return false
		}
		c.AbortWithStatusJSON(http.StatusBadRequest,
			gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return false
	}
	return true
}

func abortUnauthenticated(c *gin.Context, traceID string) {
	slog.Error("claims not found on authenticated route", slog.String(logkey.TraceID, traceID))
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}

func traceIDOf(c *gin.Context) string {
	return ctxmanage.GetTraceIdOfRequest(c)
}

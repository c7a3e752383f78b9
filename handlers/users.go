package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mediquick-backend/internal/users"
	"mediquick-backend/pkg/logkey"
)

const tokenValidity = 24 * time.Hour

// Signup creates an account and returns it with a fresh token so the client
// is logged in immediately.
func (h *handler) Signup(c *gin.Context) {
	traceID := traceIDOf(c)

	var nu users.NewUser
	if !h.bindAndValidate(c, traceID, &nu) {
		return
	}

	user, err := h.users.Insert(c.Request.Context(), nu)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			slog.Error("signup with taken email", slog.String(logkey.TraceID, traceID))
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists."})
			return
		}
		slog.Error("error inserting user",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Signup failed"})
		return
	}

	token, err := h.keys.GenerateToken(user.ID, []string{user.Role}, tokenValidity)
	if err != nil {
		slog.Error("error generating token",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Signup failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

// Login verifies credentials and issues a token. The same message covers an
// unknown email and a wrong password.
func (h *handler) Login(c *gin.Context) {
	traceID := traceIDOf(c)

	var creds users.Credentials
	if !h.bindAndValidate(c, traceID, &creds) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			slog.Error("login failed", slog.String(logkey.TraceID, traceID))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password."})
			return
		}
		slog.Error("error authenticating user",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	token, err := h.keys.GenerateToken(user.ID, []string{user.Role}, tokenValidity)
	if err != nil {
		slog.Error("error generating token",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (h *handler) GetProfile(c *gin.Context) {
	traceID := traceIDOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		abortUnauthenticated(c, traceID)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("error fetching profile",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *handler) UpdateProfile(c *gin.Context) {
	traceID := traceIDOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		abortUnauthenticated(c, traceID)
		return
	}

	var up users.UpdateProfile
	if !h.bindAndValidate(c, traceID, &up) {
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), claims.Subject, up)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("error updating profile",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Profile update failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

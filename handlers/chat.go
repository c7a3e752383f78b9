package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"mediquick-backend/internal/chatbot"
	"mediquick-backend/pkg/logkey"
)

type chatRequest struct {
	Message string `json:"message" validate:"required"`
}

// chatSessionID resolves the transcript key: the authenticated user when a
// valid bearer token is present, otherwise the client-supplied session
// header. The chat works without an account.
func (h *handler) chatSessionID(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
		if claims, err := h.keys.ValidateToken(parts[1]); err == nil {
			return claims.Subject
		}
	}
	return c.GetHeader("X-Session-Id")
}

// Chat answers one message and appends the exchange to the transcript.
func (h *handler) Chat(c *gin.Context) {
	traceID := traceIDOf(c)

	sessionID := h.chatSessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-Id header or login required"})
		return
	}

	var req chatRequest
	if !h.bindAndValidate(c, traceID, &req) {
		return
	}

	reply, meds := chatbot.Respond(req.Message)

	ex := chatbot.Exchange{
		SessionID:   sessionID,
		UserMessage: req.Message,
		BotMessage:  reply,
		Medicines:   meds,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.chats.Append(c.Request.Context(), ex); err != nil {
		// The reply still goes out; losing one transcript row is acceptable.
		slog.Error("error appending chat exchange",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply, "medicines": meds})
}

// ChatHistory serves the session transcript in chronological order.
func (h *handler) ChatHistory(c *gin.Context) {
	traceID := traceIDOf(c)

	sessionID := h.chatSessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-Id header or login required"})
		return
	}

	history, err := h.chats.History(c.Request.Context(), sessionID)
	if err != nil {
		slog.Error("error fetching chat history",
			slog.String(logkey.TraceID, traceID), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch chat history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

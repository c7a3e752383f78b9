// Package ctxmanage moves the per-request trace id in and out of contexts.
package ctxmanage

import (
	"context"

	"github.com/gin-gonic/gin"
)

type key int

const traceIDKey key = 1

// WithTraceID returns a context carrying the given trace id.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceIdOfRequest fetches the trace id set by the logger middleware.
// Returns "unknown" when the middleware did not run, so handlers can log
// unconditionally.
func GetTraceIdOfRequest(c *gin.Context) string {
	traceID, ok := c.Request.Context().Value(traceIDKey).(string)
	if !ok {
		return "unknown"
	}
	return traceID
}

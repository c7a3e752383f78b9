// Package logkey holds the slog attribute keys used across the service so
// log lines stay greppable.
package logkey

const (
	TraceID = "trace_id"
	ERROR   = "error"

	UserID    = "user_id"
	OrderID   = "order_id"
	SessionID = "session_id"
)

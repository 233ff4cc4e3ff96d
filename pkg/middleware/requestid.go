package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Key types for context values
type contextKey string

const (
	// RequestIDKey is the key for request ID values in contexts
	RequestIDKey contextKey = "requestID"
	// SessionIDKey is the key for quiz session ID values in contexts
	SessionIDKey contextKey = "sessionID"
)

// RequestIDMiddleware adds a unique request ID to each request
// and sets it in both the context and response headers
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(c.Request.Context(), RequestIDKey, requestID)
		if sessionID := c.Param("id"); sessionID != "" {
			ctx = context.WithValue(ctx, SessionIDKey, sessionID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)
		c.Request.Header.Set("X-Request-ID", requestID)
		c.Set("requestID", requestID)

		c.Next()
	}
}

// SessionKey keys rate limiting on the quiz session when present, falling
// back to the client IP.
func SessionKey(c *gin.Context) string {
	if id := c.Param("id"); id != "" {
		return "session:" + id
	}
	return c.ClientIP()
}

// GetRequestID extracts the request ID from a context
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}

	return ""
}

// GetSessionID extracts the quiz session ID from a context
func GetSessionID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok {
		return sessionID
	}

	return ""
}

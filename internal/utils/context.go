package utils

import (
	"context"
	"time"
)

type contextKey string

const ContextUserIDKey contextKey = "userID"

// SessionData is the minimal session view the middleware needs. Sessions are
// written by the external auth service; this backend only validates them.
type SessionData struct {
	UserID    string
	ExpiresAt time.Time
}

func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID := ctx.Value(ContextUserIDKey)
	userIDStr, ok := userID.(string)
	return userIDStr, ok
}

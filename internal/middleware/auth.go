package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

const callerIDKey = "callerID"

// SessionResolver maps a session key to the id of its user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionKey string) (uint64, error)
}

// AuthMiddleware rejects requests without a live session. The key is read
// from the session cookie, falling back to the session_key query parameter
// for websocket clients that cannot set cookies.
func AuthMiddleware(resolver SessionResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := c.Cookie(cookieName)
		if err != nil || key == "" {
			key = c.Query("session_key")
		}

		userID, err := resolver.ResolveSession(c.Request.Context(), key)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(callerIDKey, userID)
		c.Next()
	}
}

// CallerID returns the authenticated user id set by AuthMiddleware, or 0.
func CallerID(c *gin.Context) uint64 {
	return c.GetUint64(callerIDKey)
}

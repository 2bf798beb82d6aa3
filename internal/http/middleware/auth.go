// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the identity contract. Authentication happens at the
// edge (the gateway terminates the session and forwards the verified user id
// in X-User-ID); this service only consumes that header. Role decisions stay
// in the service layer, keyed off the user_roles table.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// userIDHeader carries the verified caller identity set by the gateway.
	userIDHeader = "X-User-ID"
	// userIDKey is the Gin context key under which the identity is stored.
	userIDKey = "userID"
)

// Identity copies the forwarded user id from X-User-ID into the Gin context.
// Absent or blank headers leave the request anonymous; endpoints that need a
// caller gate on RequireUser instead.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := strings.TrimSpace(c.GetHeader(userIDHeader)); uid != "" {
			c.Set(userIDKey, uid)
		}
		c.Next()
	}
}

// RequireUser aborts with 401 unless an identity was attached by Identity().
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "unauthenticated",
				"message":    "authentication required",
			})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

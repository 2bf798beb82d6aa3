// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for listing creation. Clients may
// send an Idempotency-Key header with POST /api/v1/listings; the middleware
// validates the key, stashes it in the request context, and consults a
// pluggable lookup to detect a replay of an already-completed creation.
// Handlers stay in control of how a replay is served (they fetch and return
// the previously created listing); the middleware only annotates the request:
//   - GetIdempotencyKey reads the normalized key
//   - IsReplay reports a detected replay
//   - replays additionally bypass rate limiting so retries from a flaky
//     network are not counted against the client
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header clients use to deduplicate
// unsafe operations. The value must be stable across retries of the same
// semantic create.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys stashing idempotency state, read through the accessors below.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// GetIdempotencyKey returns the validated idempotency key stored by
// IdempotencyValidator. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request replays a previously completed
// operation for the same (user, key) pair.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures header validation. TTL enforcement lives in
// the lookup, not here.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length; values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil uses a conservative token
	// pattern: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup answers whether a still-valid completed creation exists
// for (userID, key) at the given time. Errors mean lookup failure, not
// absence, and must not block normal processing.
type IdempotencyLookup func(ctx context.Context, userID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator validates the Idempotency-Key header when present,
// stashes the key, and marks detected replays. Requests without the header
// pass through untouched; an invalid key is rejected with 400 before any
// work happens.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if exists, _ := lookup(c.Request.Context(), UserID(c), key, time.Now().UTC()); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

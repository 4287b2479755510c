package jwtmw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shop_backend/internal/api"
)

// ContextUserID is the gin context key under which the authenticated user's
// ID is stored.
const ContextUserID = "userID"

// AuthRequired returns a Gin middleware function that validates the Bearer
// access token and restricts access to authenticated users only.
func AuthRequired(issuer *Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get Authorization header
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.Abort()
			api.Fail(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		tokenStr := strings.TrimPrefix(auth, "Bearer ")

		// 2. Verify signature, expiry and kind
		claims, err := issuer.Verify(tokenStr, KindAccess)
		if err != nil {
			c.Abort()
			api.Fail(c, http.StatusUnauthorized, "invalid token")
			return
		}

		// 3. Expose the user ID to downstream handlers
		c.Set(ContextUserID, claims.Subject)
		c.Next()
	}
}

// UserID returns the authenticated user's ID stored by AuthRequired.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"slotify/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by IdentityMiddleware.
const (
	CtxCallerID = "callerID"
	CtxRole     = "role"
)

// IdentityMiddleware validates the bearer token and stashes the caller
// identity (subject and role) on the request context. Handlers never parse
// tokens themselves.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subject, role, err := utils.ExtractIdentityFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(CtxCallerID, subject)
		c.Set(CtxRole, role)
		c.Next()
	}
}

// CallerID returns the authenticated subject set by IdentityMiddleware.
func CallerID(c *gin.Context) string {
	return c.GetString(CtxCallerID)
}

// Role returns the authenticated role set by IdentityMiddleware.
func Role(c *gin.Context) string {
	return c.GetString(CtxRole)
}

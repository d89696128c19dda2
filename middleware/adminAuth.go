package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole gates a route group to the given roles. Runs after
// IdentityMiddleware; anything else is a 403.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current := Role(c)
		for _, r := range roles {
			if current == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient role for this operation"})
	}
}

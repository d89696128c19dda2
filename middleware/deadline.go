package middleware

import (
	"context"
	"time"

	"slotify/config"

	"github.com/gin-gonic/gin"
)

// DeadlineMiddleware bounds every request with the configured timeout so a
// stuck store or gateway call cannot pin a connection forever. Downstream
// code receives the deadline through the request context.
func DeadlineMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secs := config.AppConfig.RequestTimeoutSeconds
		if secs <= 0 {
			secs = 15
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Duration(secs)*time.Second)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"zkreview-backend/internal/shared/response"
)

// AdminMiddleware requires the admin role. Must run after AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get("role")
		if !ok {
			response.Forbidden(c, "admin role required")
			c.Abort()
			return
		}

		if roleStr, ok := role.(string); !ok || roleStr != "admin" {
			response.Forbidden(c, "admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}

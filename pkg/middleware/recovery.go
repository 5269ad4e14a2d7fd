package middleware

import (
	"net/http"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a logged JSON 500 instead of a dropped connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

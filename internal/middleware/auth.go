package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"collaborative-taskboard/internal/service"
)

// Auth validates the Bearer token and stores the authenticated user id in
// the request context under "user_id".
func Auth(authService *service.AuthService) gin.HandlerFunc {
	if authService == nil {
		panic("AuthService cannot be nil for Auth middleware")
	}
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			c.Abort()
			return
		}

		userID, err := authService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

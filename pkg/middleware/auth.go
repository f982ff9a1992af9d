package middleware

import (
	"net/http"
	"strings"

	"social-scheduler/pkg/jwt"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware(jwtService *jwt.Service) gin.HandlerFunc {
	return AuthMiddlewareWithFallback(jwtService, "")
}

// AuthMiddlewareWithFallback resolves the caller identity once, at the edge:
// a request with a token must carry a user, a request without one gets
// fallbackUserID when configured. Handlers only ever read the resolved
// "user_id" from the context.
func AuthMiddlewareWithFallback(jwtService *jwt.Service, fallbackUserID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if fallbackUserID != "" {
				c.Set("user_id", fallbackUserID)
				c.Next()
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: invalid authorization format"})
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: invalid or expired token"})
			c.Abort()
			return
		}

		if claims.UserID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: token carries no user"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

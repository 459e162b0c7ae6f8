package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/voicelog/backend/internal/util"
)

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Middleware rejects requests without a valid token and stores the user in
// the context for handlers.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.RespondUnauthorized(c, "authentication required")
			c.Abort()
			return
		}

		user, err := s.ValidateToken(c.Request.Context(), token)
		if err != nil {
			util.RespondUnauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

// OptionalMiddleware stores the user when a valid token is present but lets
// anonymous requests through. Privacy gating happens per handler.
func (s *Service) OptionalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if user, err := s.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set("user", user)
			}
		}
		c.Next()
	}
}

// AdminMiddleware requires an authenticated admin. Chain after Middleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			c.Abort()
			return
		}
		if !user.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

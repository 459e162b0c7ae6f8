package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voicelog/backend/internal/models"
)

// GetUserFromContext extracts the authenticated user from the Gin context.
// Returns the user and true if found, or nil and false if not authenticated.
// If the user is not authenticated, it automatically responds with 401 Unauthorized.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	userPtr, ok := user.(*models.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid user data in context"})
		return nil, false
	}
	return userPtr, true
}

// MaybeUserFromContext extracts the authenticated user without responding on
// absence. Used on endpoints that are readable anonymously but behave
// differently for the post owner.
func MaybeUserFromContext(c *gin.Context) *models.User {
	user, exists := c.Get("user")
	if !exists {
		return nil
	}
	if userPtr, ok := user.(*models.User); ok {
		return userPtr
	}
	return nil
}

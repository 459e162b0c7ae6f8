package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voicelog/backend/internal/auth"
	"github.com/voicelog/backend/internal/logger"
	"github.com/voicelog/backend/internal/util"
	"go.uber.org/zap"
)

// Register creates a new account. Registration is gated by the signup code.
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid registration payload: "+err.Error())
		return
	}

	resp, err := h.auth.Register(c.Request.Context(), req)
	switch {
	case errors.Is(err, auth.ErrBadSignupCode):
		util.RespondForbidden(c, "invalid signup code")
	case errors.Is(err, auth.ErrEmailExists):
		util.RespondConflict(c, "email")
	case errors.Is(err, auth.ErrUsernameExists):
		util.RespondConflict(c, "username")
	case err != nil:
		logger.Log.Error("registration failed", zap.Error(err))
		util.RespondInternalError(c, "failed to register")
	default:
		logger.Log.Info("user registered",
			logger.WithUserID(resp.User.ID),
			zap.String("username", resp.User.Username),
		)
		c.JSON(http.StatusCreated, resp)
	}
}

// Login authenticates by username or email.
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid login payload: "+err.Error())
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		util.RespondUnauthorized(c, "invalid credentials")
	case errors.Is(err, auth.ErrAccountDisabled):
		util.RespondForbidden(c, "account disabled")
	case err != nil:
		logger.Log.Error("login failed", zap.Error(err))
		util.RespondInternalError(c, "failed to log in")
	default:
		c.JSON(http.StatusOK, resp)
	}
}

// Me returns the authenticated user's account.
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile applies a sparse profile edit, including the AI style
// training fields.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var upd auth.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		util.RespondBadRequest(c, "invalid profile payload: "+err.Error())
		return
	}

	if err := h.auth.UpdateProfile(c.Request.Context(), user.ID, upd); err != nil {
		logger.Log.Error("profile update failed", logger.WithUserID(user.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// ChangePassword verifies and replaces the user's password.
func (h *Handlers) ChangePassword(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid password payload: "+err.Error())
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		util.RespondUnauthorized(c, "current password is incorrect")
	case err != nil:
		logger.Log.Error("password change failed", logger.WithUserID(user.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to change password")
	default:
		c.JSON(http.StatusOK, gin.H{"message": "password changed"})
	}
}

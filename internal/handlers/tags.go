package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voicelog/backend/internal/logger"
	"github.com/voicelog/backend/internal/posts"
	"github.com/voicelog/backend/internal/util"
	"go.uber.org/zap"
)

// ListTags returns all tags.
func (h *Handlers) ListTags(c *gin.Context) {
	tags, err := h.posts.ListTags(c.Request.Context())
	if err != nil {
		logger.Log.Error("failed to list tags", zap.Error(err))
		util.RespondInternalError(c, "failed to list tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// PopularTags returns the most-used tags with usage counts.
func (h *Handlers) PopularTags(c *gin.Context) {
	limit := util.ParseInt(c.Query("limit"), 10)
	tags, err := h.posts.PopularTags(c.Request.Context(), limit)
	if err != nil {
		logger.Log.Error("failed to load popular tags", zap.Error(err))
		util.RespondInternalError(c, "failed to load popular tags")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

type createTagRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateTag is admin-only; tags are a curated global vocabulary.
func (h *Handlers) CreateTag(c *gin.Context) {
	var req createTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid tag payload: "+err.Error())
		return
	}

	tag, err := h.posts.CreateTag(c.Request.Context(), req.Name, req.Description)
	switch {
	case errors.Is(err, posts.ErrTagExists):
		util.RespondConflict(c, "tag")
	case err != nil:
		logger.Log.Error("failed to create tag", zap.Error(err))
		util.RespondInternalError(c, "failed to create tag")
	default:
		c.JSON(http.StatusCreated, tag)
	}
}

// DeleteTag removes a tag and detaches it from every post. Admin-only.
func (h *Handlers) DeleteTag(c *gin.Context) {
	tagID, err := util.ParseUintParam(c.Param("id"))
	if err != nil {
		util.RespondBadRequest(c, "invalid tag id")
		return
	}

	err = h.posts.DeleteTag(c.Request.Context(), tagID)
	switch {
	case errors.Is(err, posts.ErrNotFound):
		util.RespondNotFound(c, "tag")
	case err != nil:
		logger.Log.Error("failed to delete tag", zap.Error(err))
		util.RespondInternalError(c, "failed to delete tag")
	default:
		c.JSON(http.StatusOK, gin.H{"message": "tag deleted"})
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apierr "github.com/voicelog/backend/internal/errors"
	"github.com/voicelog/backend/internal/ingest"
	"github.com/voicelog/backend/internal/logger"
	"github.com/voicelog/backend/internal/models"
	"github.com/voicelog/backend/internal/posts"
	"github.com/voicelog/backend/internal/util"
	"go.uber.org/zap"
)

// postView augments the model with the rendered duration so clients do not
// reimplement the m:ss formatting.
type postView struct {
	*models.VoicePost
	DurationDisplay string `json:"duration_display"`
}

func viewOf(p *models.VoicePost) postView {
	return postView{VoicePost: p, DurationDisplay: p.FormatDuration()}
}

func viewsOf(list []models.VoicePost) []postView {
	out := make([]postView, len(list))
	for i := range list {
		out[i] = viewOf(&list[i])
	}
	return out
}

// loadVisiblePost fetches the post by slug and applies the privacy gate.
// Hidden posts 404 so their existence leaks nothing.
func (h *Handlers) loadVisiblePost(c *gin.Context) (*models.VoicePost, bool) {
	post, err := h.posts.GetBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, posts.ErrNotFound) {
		util.RespondNotFound(c, "post")
		return nil, false
	}
	if err != nil {
		logger.Log.Error("failed to load post", logger.WithSlug(c.Param("slug")), zap.Error(err))
		util.RespondInternalError(c, "failed to load post")
		return nil, false
	}

	if !posts.CanView(post, util.MaybeUserFromContext(c)) {
		util.RespondNotFound(c, "post")
		return nil, false
	}
	return post, true
}

// loadOwnedPost fetches the post and requires the requester to own it.
func (h *Handlers) loadOwnedPost(c *gin.Context) (*models.VoicePost, *models.User, bool) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return nil, nil, false
	}

	post, err := h.posts.GetBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, posts.ErrNotFound) {
		util.RespondNotFound(c, "post")
		return nil, nil, false
	}
	if err != nil {
		logger.Log.Error("failed to load post", logger.WithSlug(c.Param("slug")), zap.Error(err))
		util.RespondInternalError(c, "failed to load post")
		return nil, nil, false
	}

	if !posts.CanModify(post, user) {
		// Same opacity as the view gate.
		util.RespondNotFound(c, "post")
		return nil, nil, false
	}
	return post, user, true
}

// CreatePost runs the upload pipeline: validate, store, probe, convert,
// enrich, persist.
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		util.RespondBadRequest(c, "audio file is required")
		return
	}

	tagIDs, err := h.posts.ResolveTagIDs(c.Request.Context(), splitTags(c.PostForm("tags")))
	if err != nil {
		logger.Log.Error("failed to resolve tags", zap.Error(err))
		util.RespondInternalError(c, "failed to resolve tags")
		return
	}

	post, err := h.pipeline.Run(c.Request.Context(), posts.UploadInput{
		UserID:       user.ID,
		Title:        c.PostForm("title"),
		PrivacyLevel: c.PostForm("privacy_level"),
		TagIDs:       tagIDs,
		File:         file,
	})
	switch {
	case errors.Is(err, ingest.ErrNoFile), errors.Is(err, ingest.ErrBadExtension):
		util.RespondBadRequest(c, err.Error())
	case errors.Is(err, ingest.ErrTooLarge):
		util.RespondWithAPIError(c, apierr.PayloadTooLarge(err.Error()))
	case err != nil:
		logger.Log.Error("upload failed", logger.WithUserID(user.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to create post")
	default:
		c.JSON(http.StatusCreated, viewOf(post))
	}
}

// ListPosts returns the public feed: public, published posts only.
func (h *Handlers) ListPosts(c *gin.Context) {
	limit := util.ParseInt(c.Query("limit"), 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := util.ParseInt(c.Query("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	list, err := h.posts.ListPublic(c.Request.Context(), limit, offset)
	if err != nil {
		logger.Log.Error("failed to list posts", zap.Error(err))
		util.RespondInternalError(c, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": viewsOf(list), "limit": limit, "offset": offset})
}

// MyPosts returns all of the requester's posts, private and unpublished
// included.
func (h *Handlers) MyPosts(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	list, err := h.posts.ListByUser(c.Request.Context(), user.ID, true)
	if err != nil {
		logger.Log.Error("failed to list own posts", logger.WithUserID(user.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": viewsOf(list)})
}

// UserPosts returns a user's publicly visible posts.
func (h *Handlers) UserPosts(c *gin.Context) {
	var author models.User
	err := h.posts.DB().WithContext(c.Request.Context()).
		Where("LOWER(username) = LOWER(?)", c.Param("username")).
		First(&author).Error
	if err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	requester := util.MaybeUserFromContext(c)
	includeHidden := requester != nil && requester.ID == author.ID

	list, err := h.posts.ListByUser(c.Request.Context(), author.ID, includeHidden)
	if err != nil {
		logger.Log.Error("failed to list user posts", logger.WithUserID(author.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": viewsOf(list), "username": author.Username})
}

// GetPost returns a single post by slug. Every render bumps the view
// counter, owner included; there is no per-viewer dedup.
func (h *Handlers) GetPost(c *gin.Context) {
	post, ok := h.loadVisiblePost(c)
	if !ok {
		return
	}

	if err := h.posts.IncrementView(c.Request.Context(), post.ID); err != nil {
		logger.Log.Warn("failed to record view", logger.WithPostID(post.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, viewOf(post))
}

type updatePostRequest struct {
	Title        *string `json:"title"`
	Transcript   *string `json:"transcript"`
	Summary      *string `json:"summary"`
	PrivacyLevel *string `json:"privacy_level"`
	IsPublished  *bool   `json:"is_published"`
}

// UpdatePost applies a sparse edit to an owned post.
func (h *Handlers) UpdatePost(c *gin.Context) {
	post, user, ok := h.loadOwnedPost(c)
	if !ok {
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid update payload: "+err.Error())
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		util.RespondValidationError(c, "title", "title cannot be empty")
		return
	}

	patch := posts.Patch{
		Title:        req.Title,
		Transcript:   req.Transcript,
		Summary:      req.Summary,
		PrivacyLevel: req.PrivacyLevel,
		IsPublished:  req.IsPublished,
	}
	if err := h.posts.Update(c.Request.Context(), post.ID, patch); err != nil {
		logger.Log.Error("failed to update post",
			logger.WithPostID(post.ID), logger.WithUserID(user.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to update post")
		return
	}

	updated, err := h.posts.GetByID(c.Request.Context(), post.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to reload post")
		return
	}
	c.JSON(http.StatusOK, viewOf(updated))
}

// DeletePost removes the post, its analytics, tag links, and stored files.
func (h *Handlers) DeletePost(c *gin.Context) {
	post, user, ok := h.loadOwnedPost(c)
	if !ok {
		return
	}

	if err := h.posts.Delete(c.Request.Context(), post); err != nil {
		logger.Log.Error("failed to delete post",
			logger.WithPostID(post.ID), logger.WithUserID(user.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to delete post")
		return
	}

	logger.Log.Info("post deleted", logger.WithPostID(post.ID), logger.WithSlug(post.Slug))
	c.JSON(http.StatusOK, gin.H{"message": "post deleted"})
}

// ReprocessPost re-runs AI enrichment on an owned post.
func (h *Handlers) ReprocessPost(c *gin.Context) {
	post, user, ok := h.loadOwnedPost(c)
	if !ok {
		return
	}

	if err := h.pipeline.Reprocess(c.Request.Context(), post); err != nil {
		logger.Log.Error("reprocess failed",
			logger.WithPostID(post.ID), logger.WithUserID(user.ID), zap.Error(err))
		util.RespondWithAPIError(c, apierr.ServiceUnavailable("enrichment"))
		return
	}

	updated, err := h.posts.GetByID(c.Request.Context(), post.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to reload post")
		return
	}
	c.JSON(http.StatusOK, viewOf(updated))
}

// RecordPlay bumps the play counter. Fired by the player when playback
// starts.
func (h *Handlers) RecordPlay(c *gin.Context) {
	post, ok := h.loadVisiblePost(c)
	if !ok {
		return
	}

	if err := h.posts.IncrementPlay(c.Request.Context(), post.ID); err != nil {
		logger.Log.Warn("failed to record play", logger.WithPostID(post.ID), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"message": "play recorded"})
}

type setTagsRequest struct {
	Tags []string `json:"tags"`
}

// SetPostTags replaces the post's tag set wholesale.
func (h *Handlers) SetPostTags(c *gin.Context) {
	post, user, ok := h.loadOwnedPost(c)
	if !ok {
		return
	}

	var req setTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid tags payload: "+err.Error())
		return
	}

	tagIDs, err := h.posts.ResolveTagIDs(c.Request.Context(), req.Tags)
	if err != nil {
		logger.Log.Error("failed to resolve tags", logger.WithUserID(user.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to resolve tags")
		return
	}

	if err := h.posts.SetTags(c.Request.Context(), post.ID, tagIDs); err != nil {
		logger.Log.Error("failed to set tags", logger.WithPostID(post.ID), zap.Error(err))
		util.RespondInternalError(c, "failed to set tags")
		return
	}

	updated, err := h.posts.GetByID(c.Request.Context(), post.ID)
	if err != nil {
		util.RespondInternalError(c, "failed to reload post")
		return
	}
	c.JSON(http.StatusOK, viewOf(updated))
}

// splitTags parses a comma-separated tag list from a form field.
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

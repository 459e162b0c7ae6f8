package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/voicelog/backend/internal/logger"
	"github.com/voicelog/backend/internal/storage"
	"github.com/voicelog/backend/internal/util"
)

// ServeAudio streams the post's audio, preferring the converted MP3 when one
// exists. The same privacy gate as the post view applies, so a private
// post's audio is as invisible as the post itself.
func (h *Handlers) ServeAudio(c *gin.Context) {
	post, ok := h.loadVisiblePost(c)
	if !ok {
		return
	}

	key := post.AudioFilename
	if post.ConvertedMP3Path != nil && *post.ConvertedMP3Path != "" {
		key = *post.ConvertedMP3Path
	}

	store := h.posts.Store()
	if localPath, onDisk := store.LocalPath(key); onDisk {
		c.Header("Content-Type", storage.ContentTypeFor(filepath.Ext(key)))
		c.Header("Cache-Control", "public, max-age=3600")
		c.File(localPath)
		return
	}

	if url := store.URL(key); url != "" {
		c.Redirect(http.StatusFound, url)
		return
	}

	logger.Log.Error("audio file unreachable",
		logger.WithPostID(post.ID), logger.WithSlug(post.Slug))
	util.RespondNotFound(c, "audio")
}

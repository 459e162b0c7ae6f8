package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voicelog/backend/internal/cache"
	"github.com/voicelog/backend/internal/logger"
	"github.com/voicelog/backend/internal/posts"
	"github.com/voicelog/backend/internal/util"
	"go.uber.org/zap"
)

const (
	statsCacheKey = "platform:stats"
	statsCacheTTL = 5 * time.Minute
)

// PlatformStats returns platform-wide totals. The aggregate is cached in
// Redis for a few minutes since it touches every table.
func (h *Handlers) PlatformStats(c *gin.Context) {
	ctx := c.Request.Context()

	if rc := cache.GetRedisClient(); rc != nil {
		if raw, err := rc.Get(ctx, statsCacheKey); err == nil {
			var cached posts.Stats
			if json.Unmarshal([]byte(raw), &cached) == nil {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
	}

	stats, err := h.posts.PlatformStats(ctx)
	if err != nil {
		logger.Log.Error("failed to compute stats", zap.Error(err))
		util.RespondInternalError(c, "failed to compute stats")
		return
	}

	if rc := cache.GetRedisClient(); rc != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := rc.SetEx(ctx, statsCacheKey, raw, statsCacheTTL); err != nil {
				logger.Log.Warn("failed to cache stats", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, stats)
}

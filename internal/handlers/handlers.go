// Package handlers contains all HTTP handlers for the API.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/voicelog/backend/internal/auth"
	"github.com/voicelog/backend/internal/config"
	"github.com/voicelog/backend/internal/database"
	"github.com/voicelog/backend/internal/middleware"
	"github.com/voicelog/backend/internal/posts"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Handlers bundles the services the HTTP layer dispatches into.
type Handlers struct {
	cfg      *config.Config
	auth     *auth.Service
	posts    *posts.Service
	pipeline *posts.Pipeline
}

// NewHandlers creates the handler set.
func NewHandlers(cfg *config.Config, authService *auth.Service, postService *posts.Service, pipeline *posts.Pipeline) *Handlers {
	return &Handlers{
		cfg:      cfg,
		auth:     authService,
		posts:    postService,
		pipeline: pipeline,
	}
}

// SetupRouter builds the full gin engine with the middleware chain and all
// routes.
func (h *Handlers) SetupRouter() *gin.Engine {
	if h.cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.GinLogger())
	r.Use(middleware.Metrics())
	r.Use(otelgin.Middleware("voicelog-backend"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.Use(middleware.RedisRateLimit(300, time.Minute))
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)
			authGroup.GET("/me", h.auth.Middleware(), h.Me)
			authGroup.PUT("/profile", h.auth.Middleware(), h.UpdateProfile)
			authGroup.PUT("/password", h.auth.Middleware(), h.ChangePassword)
		}

		postGroup := api.Group("/posts")
		{
			postGroup.GET("", h.auth.OptionalMiddleware(), h.ListPosts)
			postGroup.POST("", h.auth.Middleware(), h.CreatePost)
			postGroup.GET("/mine", h.auth.Middleware(), h.MyPosts)
			postGroup.GET("/:slug", h.auth.OptionalMiddleware(), h.GetPost)
			postGroup.PATCH("/:slug", h.auth.Middleware(), h.UpdatePost)
			postGroup.DELETE("/:slug", h.auth.Middleware(), h.DeletePost)
			postGroup.POST("/:slug/reprocess", h.auth.Middleware(), h.ReprocessPost)
			postGroup.POST("/:slug/play", h.auth.OptionalMiddleware(), h.RecordPlay)
			postGroup.PUT("/:slug/tags", h.auth.Middleware(), h.SetPostTags)
		}

		api.GET("/audio/:slug", h.auth.OptionalMiddleware(), h.ServeAudio)

		tagGroup := api.Group("/tags")
		{
			tagGroup.GET("", h.ListTags)
			tagGroup.GET("/popular", h.PopularTags)
			tagGroup.POST("", h.auth.Middleware(), auth.AdminMiddleware(), h.CreateTag)
			tagGroup.DELETE("/:id", h.auth.Middleware(), auth.AdminMiddleware(), h.DeleteTag)
		}

		api.GET("/stats", h.PlatformStats)

		userGroup := api.Group("/users")
		{
			userGroup.GET("/:username/posts", h.auth.OptionalMiddleware(), h.UserPosts)
		}
	}

	return r
}

// Health reports liveness plus database connectivity.
func (h *Handlers) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if err := database.Health(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"service":   "voicelog-backend",
	})
}

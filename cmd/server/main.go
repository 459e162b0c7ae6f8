package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/voicelog/backend/internal/audio"
	"github.com/voicelog/backend/internal/auth"
	"github.com/voicelog/backend/internal/cache"
	"github.com/voicelog/backend/internal/config"
	"github.com/voicelog/backend/internal/database"
	"github.com/voicelog/backend/internal/enrich"
	"github.com/voicelog/backend/internal/handlers"
	"github.com/voicelog/backend/internal/logger"
	"github.com/voicelog/backend/internal/posts"
	"github.com/voicelog/backend/internal/storage"
	"github.com/voicelog/backend/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("voicelog server starting", zap.String("environment", cfg.Environment))

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  "voicelog-backend",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Enabled:      cfg.OTLPEndpoint != "",
		SamplingRate: 1.0,
	})
	if err != nil {
		logger.Log.Warn("tracing disabled", zap.Error(err))
	}
	if tp != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Log.Warn("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	if err := database.Initialize(cfg.DatabaseURL, cfg.Environment); err != nil {
		logger.Log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("failed to run migrations", zap.Error(err))
	}

	store, err := buildStore(cfg)
	if err != nil {
		logger.Log.Fatal("failed to initialize storage", zap.Error(err))
	}

	if err := audio.CheckFFmpegAvailable(); err != nil {
		logger.Log.Warn("ffmpeg not available, duration probing and conversion degraded", zap.Error(err))
	}

	if _, err := cache.NewRedisClientFromURL(cfg.RedisURL); err != nil {
		logger.Log.Warn("redis unavailable, rate limiting and stats caching disabled", zap.Error(err))
	}

	enricher := enrich.NewClient(cfg)
	if enricher.Enabled() {
		logger.Log.Info("AI enrichment enabled", zap.String("provider", enricher.ProviderName()))
	} else {
		logger.Log.Info("AI enrichment disabled, posts keep raw metadata")
	}

	authService := auth.NewService(database.DB, cfg.JWTSecret, cfg.SignupCode)
	postService := posts.NewService(database.DB, store)
	pipeline := posts.NewPipeline(postService, enricher)

	h := handlers.NewHandlers(cfg, authService, postService, pipeline)
	router := h.SetupRouter()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info("listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal("forced shutdown", zap.Error(err))
	}

	if rc := cache.GetRedisClient(); rc != nil {
		if err := rc.Close(); err != nil {
			logger.Log.Warn("redis close failed", zap.Error(err))
		}
	}

	logger.Log.Info("server exited")
}

// buildStore selects the storage backend from configuration.
func buildStore(cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBackend == config.StorageS3 {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			return nil, err
		}
		if err := s3Store.CheckBucketAccess(context.Background()); err != nil {
			logger.Log.Warn("S3 bucket access check failed", zap.Error(err))
		}
		return s3Store, nil
	}
	return storage.NewLocalStore(cfg.UploadDir)
}

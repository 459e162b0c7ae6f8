package config

import (
	"fmt"
	"os"
	"strconv"
)

// Storage backend selection
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Config holds all process configuration, resolved once at startup.
// Components receive it (or the fields they need) by reference instead of
// reading the environment at call time.
type Config struct {
	Environment string
	Port        string

	DatabaseURL string

	JWTSecret  []byte
	SignupCode string

	// Filesystem layout: UploadDir holds originals and header images,
	// UploadDir/converted holds transcoded MP3s.
	UploadDir string

	StorageBackend string
	AWSRegion      string
	AWSBucket      string
	CDNBaseURL     string

	RedisURL string

	// Enrichment credentials. Gemini wins when both are set.
	GeminiAPIKey string
	OpenAIAPIKey string
	// Max generated title length before truncation with an ellipsis.
	TitleMaxLength int

	LogLevel string
	LogFile  string

	OTLPEndpoint string
}

// Load resolves configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:    getEnvOrDefault("ENVIRONMENT", "development"),
		Port:           getEnvOrDefault("PORT", "8787"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      []byte(os.Getenv("JWT_SECRET")),
		SignupCode:     getEnvOrDefault("SIGNUP_CODE", "VOICE2024"),
		UploadDir:      getEnvOrDefault("UPLOAD_DIR", "uploads"),
		StorageBackend: getEnvOrDefault("STORAGE_BACKEND", StorageLocal),
		AWSRegion:      os.Getenv("AWS_REGION"),
		AWSBucket:      os.Getenv("AWS_BUCKET"),
		CDNBaseURL:     os.Getenv("CDN_BASE_URL"),
		RedisURL:       getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		TitleMaxLength: getEnvIntOrDefault("AI_TITLE_MAX_LENGTH", 60),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:        getEnvOrDefault("LOG_FILE", "server.log"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.DatabaseURL == "" {
		// Fallback to individual components
		host := getEnvOrDefault("DB_HOST", "localhost")
		port := getEnvOrDefault("DB_PORT", "5432")
		user := getEnvOrDefault("DB_USER", "postgres")
		password := os.Getenv("DB_PASSWORD")
		dbname := getEnvOrDefault("DB_NAME", "voicelog")
		sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

		cfg.DatabaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, user, password, dbname, sslmode)
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	if cfg.StorageBackend == StorageS3 && cfg.AWSBucket == "" {
		return nil, fmt.Errorf("AWS_BUCKET is required when STORAGE_BACKEND=s3")
	}

	return cfg, nil
}

// HasEnrichment reports whether any AI provider credential is configured.
func (c *Config) HasEnrichment() bool {
	return c.GeminiAPIKey != "" || c.OpenAIAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port        string
	Env         string
	APIUrl      string
	FrontendURL string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimeZone string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Asset store S3
	StoreS3Endpoint        string
	StoreS3Region          string
	StoreS3AccessKeyID     string
	StoreS3SecretAccessKey string
	StoreS3UsePathStyle    bool
	AssetsBucket           string

	// Upload engine
	UploadMaxImageSize    int64
	UploadMaxVideoSize    int64
	UploadMaxDocumentSize int64
	UploadMaxAudioSize    int64
	UploadMaxSlideSize    int64
	UploadMaxDefaultSize  int64
	UploadMaxBatchFiles   int
	UploadInterFileDelay  time.Duration
	SessionRetention      time.Duration
	CleanupDecisionWait   time.Duration

	// Security
	RateLimitRequests   int
	RateLimitDuration   time.Duration
	UploadRateLimit     int
	UploadRateWindow    time.Duration
	PresignedURLTTLMins int

	// CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func New() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		APIUrl:      getEnv("API_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "lernwerk"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "lernwerk_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
		DBTimeZone: getEnv("DB_TIMEZONE", "Europe/Berlin"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Asset store S3
		StoreS3Endpoint:        getEnv("STORE_S3_ENDPOINT", ""),
		StoreS3Region:          getEnv("STORE_S3_REGION", "us-east-1"),
		StoreS3AccessKeyID:     getEnv("STORE_S3_ACCESS_KEY_ID", ""),
		StoreS3SecretAccessKey: getEnv("STORE_S3_SECRET_ACCESS_KEY", ""),
		StoreS3UsePathStyle:    getEnv("STORE_S3_USE_PATH_STYLE", "true") == "true",
		AssetsBucket:           getEnv("ASSETS_BUCKET", "lernwerk-assets"),

		// Upload engine
		UploadMaxImageSize:    getEnvAsInt64("UPLOAD_MAX_IMAGE_SIZE", 10*1024*1024),
		UploadMaxVideoSize:    getEnvAsInt64("UPLOAD_MAX_VIDEO_SIZE", 500*1024*1024),
		UploadMaxDocumentSize: getEnvAsInt64("UPLOAD_MAX_DOCUMENT_SIZE", 50*1024*1024),
		UploadMaxAudioSize:    getEnvAsInt64("UPLOAD_MAX_AUDIO_SIZE", 200*1024*1024),
		UploadMaxSlideSize:    getEnvAsInt64("UPLOAD_MAX_SLIDE_SIZE", 20*1024*1024),
		UploadMaxDefaultSize:  getEnvAsInt64("UPLOAD_MAX_DEFAULT_SIZE", 100*1024*1024),
		UploadMaxBatchFiles:   getEnvAsInt("UPLOAD_MAX_BATCH_FILES", 20),
		UploadInterFileDelay:  getEnvAsDuration("UPLOAD_INTER_FILE_DELAY", "300ms"),
		SessionRetention:      getEnvAsDuration("SESSION_RETENTION", "2m"),
		CleanupDecisionWait:   getEnvAsDuration("CLEANUP_DECISION_WAIT", "60s"),

		// Security
		RateLimitRequests:   getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration:   getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),
		UploadRateLimit:     getEnvAsInt("UPLOAD_RATE_LIMIT", 30),
		UploadRateWindow:    getEnvAsDuration("UPLOAD_RATE_WINDOW", "24h"),
		PresignedURLTTLMins: getEnvAsInt("PRESIGNED_URL_TTL_MINUTES", 15),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
	}
}

// MaxSizeForKind returns the per-file size ceiling for an asset kind name.
func (c *Config) MaxSizeForKind(kind string) int64 {
	switch kind {
	case "image", "logo":
		return c.UploadMaxImageSize
	case "marketing-video", "content-video":
		return c.UploadMaxVideoSize
	case "document":
		return c.UploadMaxDocumentSize
	case "audio":
		return c.UploadMaxAudioSize
	case "slide":
		return c.UploadMaxSlideSize
	default:
		return c.UploadMaxDefaultSize
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}

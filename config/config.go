package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	AWS        AWSConfig
	Transcribe TranscribeConfig
	Rewrite    RewriteConfig
	Session    SessionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// RedisConfig holds Redis connection settings for the session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AWSConfig holds AWS credentials and the video bucket.
type AWSConfig struct {
	Region            string
	AccessKeyID       string
	SecretAccessKey   string
	VideoBucket       string
	PresignExpireSecs int
}

// TranscribeConfig holds transcription job settings.
type TranscribeConfig struct {
	LanguageCode     string
	MaxSpeakerLabels int
	FetchTimeoutSecs int // transcript result download timeout
}

// RewriteConfig holds Anthropic rewrite settings.
type RewriteConfig struct {
	APIKey        string
	Model         string
	MaxChunkChars int
	MaxTokens     int
	Temperature   float64
	RatePerMinute int // rewrite requests allowed per session per minute
}

// SessionConfig holds workflow session settings.
type SessionConfig struct {
	TTLHours   int
	CookieName string
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 120),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		AWS: AWSConfig{
			Region:            getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
			VideoBucket:       getEnv("S3_VIDEO_BUCKET", ""),
			PresignExpireSecs: getEnvInt("S3_PRESIGN_EXPIRE_SEC", 3600),
		},
		Transcribe: TranscribeConfig{
			LanguageCode:     getEnv("TRANSCRIBE_LANGUAGE_CODE", "es-ES"),
			MaxSpeakerLabels: getEnvInt("TRANSCRIBE_MAX_SPEAKERS", 2),
			FetchTimeoutSecs: getEnvInt("TRANSCRIPT_FETCH_TIMEOUT_SEC", 30),
		},
		Rewrite: RewriteConfig{
			APIKey:        getEnv("ANTHROPIC_API_KEY", ""),
			Model:         getEnv("ANTHROPIC_MODEL", "claude-3-sonnet-20240229"),
			MaxChunkChars: getEnvInt("REWRITE_MAX_CHUNK_CHARS", 4000),
			MaxTokens:     getEnvInt("REWRITE_MAX_TOKENS", 4000),
			Temperature:   getEnvFloat("REWRITE_TEMPERATURE", 0.7),
			RatePerMinute: getEnvInt("REWRITE_RATE_PER_MINUTE", 2),
		},
		Session: SessionConfig{
			TTLHours:   getEnvInt("SESSION_TTL_HOURS", 24),
			CookieName: getEnv("SESSION_COOKIE_NAME", "clipscribe_session"),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

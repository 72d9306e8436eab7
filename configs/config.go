package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	AnthropicAPIKey       string
	AnthropicVisionModel  string
	AnthropicTextModel    string
	AnthropicHaikuModel   string
	NaverClientID         string
	NaverClientSecret     string
	NaverRedirectURI      string
	NaverBlogID           string
	InstagramClientID     string
	InstagramClientSecret string
	InstagramRedirectURI  string
	GoogleClientID        string
	GoogleClientSecret    string
	GoogleRedirectURI     string
	PostgresURI           string
	RedisURI              string
	FrontendURL           string
	R2                    R2
	SecretKey             string
	AdminKey              string
	CookieName            string
	FFmpegPath            string
	ShortsDuration        int
	MaxUploadSize         int64
}

func LoadConfig() *Config {
	return &Config{
		AnthropicAPIKey:       getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicVisionModel:  getEnv("ANTHROPIC_VISION_MODEL", "claude-3-opus-20240229"),
		AnthropicTextModel:    getEnv("ANTHROPIC_TEXT_MODEL", "claude-3-sonnet-20240229"),
		AnthropicHaikuModel:   getEnv("ANTHROPIC_HAIKU_MODEL", "claude-3-haiku-20240307"),
		NaverClientID:         getEnv("NAVER_CLIENT_ID", ""),
		NaverClientSecret:     getEnv("NAVER_CLIENT_SECRET", ""),
		NaverRedirectURI:      getEnv("NAVER_REDIRECT_URI", ""),
		NaverBlogID:           getEnv("NAVER_BLOG_ID", ""),
		InstagramClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
		InstagramClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		InstagramRedirectURI:  getEnv("INSTAGRAM_REDIRECT_URI", ""),
		GoogleClientID:        getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:    getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:     getEnv("GOOGLE_REDIRECT_URI", ""),
		PostgresURI:           getEnv("POSTGRES_URI", ""),
		RedisURI:              getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:           getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:      getEnv("SECRET_KEY", ""),
		AdminKey:       getEnv("ADMIN_KEY", ""),
		CookieName:     getEnv("COOKIE_NAME", "florapost_session"),
		FFmpegPath:     getEnv("FFMPEG_PATH", "ffmpeg"),
		ShortsDuration: getEnvInt("SHORTS_DURATION", 15),
		MaxUploadSize:  int64(getEnvInt("MAX_UPLOAD_SIZE", 10485760)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

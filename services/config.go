package services

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries every process-wide setting, read once at startup and passed
// by reference into service constructors. Core logic never reads env directly.
type Config struct {
	Port string

	// Fashn AI
	FashnAPIKey string

	// Cloudflare R2
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string

	SentryDSN string

	// When true the AI provider is never contacted and a simulated result is
	// returned after a fixed delay.
	UseMockAI bool
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading environment directly")
	}
	return &Config{
		Port:              GetEnv("PORT", "3001"),
		FashnAPIKey:       GetEnv("FASHN_API_KEY", ""),
		R2AccountID:       GetEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     GetEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: GetEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      GetEnv("R2_BUCKET_NAME", ""),
		SentryDSN:         GetEnv("SENTRY_DSN", ""),
		UseMockAI:         os.Getenv("USE_MOCK_AI") == "true",
	}
}

func GetEnv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

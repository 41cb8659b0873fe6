package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// loadSecrets fills credentials that never live in the JSON config file.
// A .env file in the working directory is honoured when present.
func loadSecrets(cfg *Config) {
	_ = godotenv.Load()

	cfg.HFToken = getEnv("HF_TOKEN", "")
	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", "")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.AwsAccessKey = getEnv("AWS_ACCESS_KEY", "")
	cfg.AwsSecretKey = getEnv("AWS_SECRET_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "us-east-2")
	if port := getEnvInt("PORT", 0); port > 0 {
		cfg.Server.Port = port
	}
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

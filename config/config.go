package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	Auth       AuthConfig
	CORS       CORSConfig
}

type DatabaseConfig struct {
	// URI is the MongoDB connection string (DBHOST). Required.
	URI string

	// Name is the database holding the watchlist collections.
	Name string

	// ConnectTimeout bounds the initial dial and ping.
	ConnectTimeout time.Duration
}

type AuthConfig struct {
	// TokenSecret signs and verifies JWTs. Required.
	TokenSecret string

	// TokenTTL is the validity window of issued tokens.
	TokenTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		URI:            getEnv("DBHOST", ""),
		Name:           getEnv("DB_NAME", "movie-watchlist"),
		ConnectTimeout: getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
	}

	authConfig := AuthConfig{
		TokenSecret: getEnv("TOKEN_SECRET", ""),
		TokenTTL:    getEnvDuration("TOKEN_TTL", 2*time.Hour),
	}

	corsConfig := CORSConfig{
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}

	return Config{
		ServerPort: getEnvInt("PORT", 4000),
		Database:   dbConfig,
		Auth:       authConfig,
		CORS:       corsConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}

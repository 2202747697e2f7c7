package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBDriver         string
	SQLitePath       string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPass           string
	DBName           string
	ServerPort       string
	RedisURL         string
	Env              string
	RedisTTL         time.Duration
	FrontendOrigins  []string
	SessionTTL       time.Duration
	SessionCookie    string
	CookieSecure     bool
	RequestTimeout   time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxMessageLength int
}

func LoadConfig() Config {
	env := getEnv("ENV", "dev")
	return Config{
		DBDriver:         getEnv("DB_DRIVER", "postgres"),
		SQLitePath:       getEnv("SQLITE_PATH", "groupchat.db"),
		DBHost:           getEnv("DB_HOST", "postgres"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPass:           getEnv("DB_PASSWORD", "password"),
		DBName:           getEnv("DB_NAME", "groupchat"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		RedisURL:         getEnv("REDIS_URL", "redis:6379"),
		Env:              env,
		RedisTTL:         getEnvAsDuration("REDIS_TTL", 5*time.Minute),
		FrontendOrigins:  getEnvAsList("FRONTEND_URL", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 10*time.Minute),
		SessionCookie:    getEnv("SESSION_COOKIE", "session_key"),
		CookieSecure:     getEnvAsBool("SESSION_COOKIE_SECURE", env != "dev"),
		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
		RateLimitRPS:     getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:   getEnvAsInt("RATE_LIMIT_BURST", 10),
		MaxMessageLength: getEnvAsInt("MAX_MESSAGE_LENGTH", 255),
	}
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	items := strings.Split(value, ",")
	for i := range items {
		items[i] = strings.TrimSpace(items[i])
	}
	return items
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}

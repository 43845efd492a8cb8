package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        int
	NatsURL     string // empty disables NATS
	NatsToken   string
	DatabaseURL string // empty skips the Postgres rule set
	RuleSet     string
	RulesDir    string
	LogLevel    string
	APIToken    string
	RateLimit   float64 // requests per second, 0 disables
	RateBurst   int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first without overriding variables already set.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        envInt("CEREALBOX_PORT", 8760),
		NatsURL:     envStr("NATS_URL", ""),
		NatsToken:   envStr("NATS_TOKEN", ""),
		DatabaseURL: envStr("DATABASE_URL", ""),
		RuleSet:     envStr("CEREALBOX_RULESET", "default"),
		RulesDir:    envStr("CEREALBOX_RULES_DIR", ""),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		APIToken:    envStr("CEREALBOX_API_TOKEN", ""),
		RateLimit:   envFloat("CEREALBOX_RATE_LIMIT", 0),
		RateBurst:   envInt("CEREALBOX_RATE_BURST", 20),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return fallback
}

// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/subosito/gotenv"
)

type Config struct {
	Port       string
	JWTSecret  []byte
	JWTExpiry  time.Duration
	APIKey     string
	APISecret  string
	RateLimit  int // requests per second per client
	BodyLimit  string
	Debug      bool
	ServiceTag string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	_ = gotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Port:       getenv("PORT", "8080"),
		JWTSecret:  []byte(getenv("JWT_SECRET", "change-me-in-production")),
		JWTExpiry:  getDuration("JWT_EXPIRY", 24*time.Hour),
		APIKey:     getenv("API_KEY", "bookreader"),
		APISecret:  getenv("API_SECRET", "bookreader"),
		RateLimit:  getInt("RATE_LIMIT", 20),
		BodyLimit:  getenv("BODY_LIMIT", "1KB"),
		Debug:      os.Getenv("DEBUG") == "true",
		ServiceTag: getenv("SERVICE_TAG", "avatar-colour"),
	}
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// utils/config.go
package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every runtime setting the application needs. It is built once
// at startup from the environment and passed explicitly to constructors.
type Config struct {
	Port               string
	Env                string
	BaseURL            string
	DatabaseURI        string
	DatabaseName       string
	JWTSecret          string
	JWTExpiresIn       time.Duration
	JWTCookieExpiresIn time.Duration
	StripeSecretKey    string
	PostmarkAPIToken   string
	EmailFrom          string
}

// LoadConfig reads configuration from environment variables. Call
// godotenv.Load beforehand to pick up a local .env file.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8000"),
		Env:              getEnv("ENV", "development"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8000"),
		DatabaseURI:      os.Getenv("DATABASE_URI"),
		DatabaseName:     getEnv("DATABASE_NAME", "tours"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		StripeSecretKey:  os.Getenv("STRIPE_SECRET_KEY"),
		PostmarkAPIToken: os.Getenv("POSTMARK_API_TOKEN"),
		EmailFrom:        getEnv("EMAIL_FROM", "admin@go-tours.dev"),
	}

	if cfg.DatabaseURI == "" {
		return nil, fmt.Errorf("DATABASE_URI is not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	var err error
	cfg.JWTExpiresIn, err = getDuration("JWT_EXPIRES_IN", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.JWTCookieExpiresIn, err = getDuration("JWT_COOKIE_EXPIRES_IN", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsProduction reports whether the app runs in production mode. Development
// mode returns full error detail to the caller.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDuration accepts either a Go duration string ("24h") or a number of
// hours ("24").
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	if hours, err := strconv.Atoi(raw); err == nil {
		return time.Duration(hours) * time.Hour, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, raw)
	}
	return d, nil
}

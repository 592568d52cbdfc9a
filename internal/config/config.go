package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string

	RazorpayKeyID     string
	RazorpayKeySecret string

	SessionSecret string
	SessionTTL    time.Duration

	// Empty MigrationsDir disables migrations at startup.
	MigrationsDir string
}

func FromEnv() (Config, error) {
	var c Config

	c.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}

	c.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if c.DatabaseURL == "" {
		return c, fmt.Errorf("DATABASE_URL is empty")
	}

	c.RazorpayKeyID = strings.TrimSpace(os.Getenv("RAZORPAY_KEY_ID"))
	if c.RazorpayKeyID == "" {
		return c, fmt.Errorf("RAZORPAY_KEY_ID is empty")
	}
	c.RazorpayKeySecret = strings.TrimSpace(os.Getenv("RAZORPAY_KEY_SECRET"))
	if c.RazorpayKeySecret == "" {
		return c, fmt.Errorf("RAZORPAY_KEY_SECRET is empty")
	}

	c.SessionSecret = strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if c.SessionSecret == "" {
		return c, fmt.Errorf("SESSION_SECRET is empty")
	}

	c.SessionTTL = time.Hour
	if raw := strings.TrimSpace(os.Getenv("SESSION_TTL")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return c, fmt.Errorf("invalid SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}

	c.MigrationsDir = strings.TrimSpace(os.Getenv("MIGRATIONS_DIR"))

	return c, nil
}

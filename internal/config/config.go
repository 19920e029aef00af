package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	// APIKey is the GISTDA credential. Empty is allowed; the provider then
	// rejects heat fetches and the heat layer stays empty.
	APIKey string

	HeatURL string
	RainURL string

	// HTTPTimeout bounds each outbound provider call.
	HTTPTimeout time.Duration

	// FetchMaxRetries is the number of retries after a failed provider call (0 = none).
	FetchMaxRetries int

	// RefreshInterval re-fetches the active dataset periodically (0 = disabled).
	RefreshInterval time.Duration

	DefaultDataset string
	SidebarOpen    bool

	Environment string
	LogLevel    string

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.APIKey = getenvDefault("GISTDA_API_KEY", os.Getenv("API_KEY"))
	cfg.HeatURL = os.Getenv("HEAT_URL")
	cfg.RainURL = os.Getenv("RAIN_URL")

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: must be positive")
	}
	cfg.HTTPTimeout = timeout

	cfg.FetchMaxRetries = getenvInt("FETCH_MAX_RETRIES", 0)
	if cfg.FetchMaxRetries < 0 {
		return nil, fmt.Errorf("invalid FETCH_MAX_RETRIES: must not be negative")
	}

	interval, err := time.ParseDuration(getenvDefault("REFRESH_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	cfg.DefaultDataset = strings.ToLower(getenvDefault("DEFAULT_DATASET", "heat"))
	cfg.SidebarOpen = getenvBool("SIDEBAR_OPEN", true)

	cfg.Environment = getenvDefault("APP_ENV", "development")
	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

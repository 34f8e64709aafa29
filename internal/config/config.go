package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// defaultDevServer is the developer-local API target.
	defaultDevServer = "http://localhost:3000/api"

	// productionBasePath is the fixed API prefix on the production origin.
	productionBasePath = "/api"

	defaultLandingAddr = "127.0.0.1:4173"
	defaultTimeout     = 15 * time.Second
)

// Config holds everything resolved once at startup. Nothing here is
// re-evaluated per request.
type Config struct {
	// BaseURL is the API prefix every request is built against.
	BaseURL string
	// TokenPath is the file that stands in for browser storage.
	TokenPath string
	// LandingAddr is where the email-verification landing listens.
	LandingAddr string
	// Timeout bounds each round trip.
	Timeout time.Duration
}

// LoadEnv loads the first .env file found walking up from the working
// directory. Missing files are fine; the environment wins anyway.
func LoadEnv() {
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err == nil {
			break
		}
	}
}

// Load resolves the client configuration from the environment.
//
// Base URL precedence: AUTHGATE_SERVER override, then the production origin
// plus the fixed /api prefix when AUTHGATE_ENV=production, then the
// developer-local target.
func Load() (Config, error) {
	base := defaultDevServer
	if os.Getenv("AUTHGATE_ENV") == "production" {
		origin := os.Getenv("AUTHGATE_ORIGIN")
		if origin == "" {
			return Config{}, fmt.Errorf("AUTHGATE_ENV=production requires AUTHGATE_ORIGIN")
		}
		base = strings.TrimRight(origin, "/") + productionBasePath
	}
	if server := os.Getenv("AUTHGATE_SERVER"); server != "" {
		base = strings.TrimRight(server, "/")
	}

	tokenPath := os.Getenv("AUTHGATE_TOKEN_PATH")
	if tokenPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home directory: %w", err)
		}
		tokenPath = filepath.Join(home, ".authgate", "token")
	}

	timeout := defaultTimeout
	if raw := os.Getenv("AUTHGATE_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse AUTHGATE_TIMEOUT: %w", err)
		}
		timeout = d
	}

	return Config{
		BaseURL:     base,
		TokenPath:   tokenPath,
		LandingAddr: getEnvOrDefault("AUTHGATE_LANDING_ADDR", defaultLandingAddr),
		Timeout:     timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

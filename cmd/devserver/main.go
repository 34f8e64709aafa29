package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"authgate/internal/stubserver"
)

func main() {
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err == nil {
			break
		}
	}

	cfg := stubserver.Config{
		DBPath:              getEnvOrDefault("DEVSERVER_DB", "./authgate-dev.db"),
		RequireConfirmation: os.Getenv("REQUIRE_EMAIL_CONFIRMATION") == "true",
		LandingURL:          getEnvOrDefault("DEVSERVER_LANDING_URL", "http://127.0.0.1:4173/verify-email"),
	}

	srv, err := stubserver.New(cfg)
	if err != nil {
		log.Fatalf("stub server: %v", err)
	}
	defer srv.Close()

	port := getEnvOrDefault("DEVSERVER_PORT", "3000")
	log.Printf("dev API listening on :%s (confirmation=%t)", port, cfg.RequireConfirmation)
	if err := http.ListenAndServe(":"+port, srv.Handler()); err != nil {
		log.Fatalf("listen: %v", err)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

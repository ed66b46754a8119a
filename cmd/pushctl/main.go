package main

import (
	"os"

	"pwa-push-backend/pkg/logger"
)

func main() {
	logger.Setup(getEnv("LOG_LEVEL", "warn"), "text")
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

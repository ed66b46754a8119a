package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const placeholderVAPIDKey = "YOUR_VAPID_KEY_HERE"

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	DBDriver    string // "postgres" or "sqlite"
	DatabaseURL string
	SQLitePath  string

	FirebaseProjectID            string
	FirebaseCredentials          string // path to a service account JSON file
	FirebaseServiceAccountBase64 string
	VAPIDPublicKey               string

	AppURL             string // default click target, also the app origin
	NotificationIcon   string
	NotificationBadge  string
	NotificationTag    string
	NotificationColor  string
	RequireInteraction bool

	SendTimeout        time.Duration
	SendMaxRetries     uint64
	SendRetryBaseDelay time.Duration

	GoogleProjectID   string
	GooglePubSubTopic string
	GoogleCredentials string

	TokenSweepInterval time.Duration
	AdminJWTSecret     string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", "pwa-push.db"),

		FirebaseProjectID:            getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentials:          getEnv("FIREBASE_CREDENTIALS", ""),
		FirebaseServiceAccountBase64: getEnv("FIREBASE_SERVICE_ACCOUNT_BASE64", ""),
		VAPIDPublicKey:               getEnv("VAPID_PUBLIC_KEY", ""),

		AppURL:             getEnv("APP_URL", "http://localhost:3000/"),
		NotificationIcon:   getEnv("NOTIFICATION_ICON", "/icon-192x192.png"),
		NotificationBadge:  getEnv("NOTIFICATION_BADGE", "/icon-72x72.png"),
		NotificationTag:    getEnv("NOTIFICATION_TAG", "pwa-notification"),
		NotificationColor:  getEnv("NOTIFICATION_COLOR", "#4f46e5"),
		RequireInteraction: getEnvBool("REQUIRE_INTERACTION", true),

		SendTimeout:        getEnvDuration("SEND_TIMEOUT", 10*time.Second),
		SendMaxRetries:     getEnvUint("SEND_MAX_RETRIES", 3),
		SendRetryBaseDelay: getEnvDuration("SEND_RETRY_BASE_DELAY", 200*time.Millisecond),

		GoogleProjectID:   getEnv("GOOGLE_PROJECT_ID", ""),
		GooglePubSubTopic: getEnv("GOOGLE_PUBSUB_TOPIC", "pwa-notifications"),
		GoogleCredentials: getEnv("GOOGLE_CREDENTIALS", ""),

		TokenSweepInterval: getEnvDuration("TOKEN_SWEEP_INTERVAL", 0),
		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// HasVAPIDKey reports whether a usable public key is configured.
func (c *Config) HasVAPIDKey() bool {
	return IsUsableVAPIDKey(c.VAPIDPublicKey)
}

// IsUsableVAPIDKey rejects empty keys and the placeholder shipped in sample env files.
func IsUsableVAPIDKey(key string) bool {
	return key != "" && key != placeholderVAPIDKey
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

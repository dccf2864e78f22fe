package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Gallery source configuration
	GalleryBaseURL string
	GalleryID      string

	// Azure Storage configuration
	StorageAccount   string
	StorageContainer string

	// Notification configuration (optional)
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string

	// Locator policy. The pinned cutoff and old-post streak defaults were
	// tuned against live board behavior.
	PinnedCutoff   time.Duration
	OldPostStreak  int
	MaxListPages   int
	ListTimeout    time.Duration

	// Fetcher policy
	FetchWorkers     int
	FetchTimeout     time.Duration
	MaxAttempts      int
	PacingDelay      time.Duration
	PacingJitter     time.Duration
	FailureThreshold int

	// Scheduler policy
	ResumeStaleness time.Duration
	WindowPause     time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		GalleryBaseURL: getEnv("GALLERY_BASE_URL", "https://gall.dcinside.com"),
		GalleryID:      getEnv("GALLERY_ID", ""),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "gallery-activity"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),

		PinnedCutoff:  getDurationEnv("PINNED_CUTOFF", 24*time.Hour),
		OldPostStreak: getIntEnv("OLD_POST_STREAK", 10),
		MaxListPages:  getIntEnv("MAX_LIST_PAGES", 500),
		ListTimeout:   getDurationEnv("LIST_TIMEOUT", 10*time.Second),

		FetchWorkers:     getIntEnv("FETCH_WORKERS", 4),
		FetchTimeout:     getDurationEnv("FETCH_TIMEOUT", 30*time.Second),
		MaxAttempts:      getIntEnv("MAX_ATTEMPTS", 3),
		PacingDelay:      getDurationEnv("PACING_DELAY", 300*time.Millisecond),
		PacingJitter:     getDurationEnv("PACING_JITTER", 200*time.Millisecond),
		FailureThreshold: getIntEnv("FAILURE_THRESHOLD", 10),

		ResumeStaleness: getDurationEnv("RESUME_STALENESS", 24*time.Hour),
		WindowPause:     getDurationEnv("WINDOW_PAUSE", 2*time.Second),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.GalleryID == "" {
		return fmt.Errorf("GALLERY_ID is required")
	}

	if c.StorageAccount == "" {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if c.FetchWorkers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be at least 1")
	}

	if c.MaxAttempts < 1 {
		return fmt.Errorf("MAX_ATTEMPTS must be at least 1")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

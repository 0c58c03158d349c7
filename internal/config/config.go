package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Identity used in spreadsheet titles and notification copy
	AppName          string
	OrganizationName string

	// Google OAuth credential triple; all three must be set for the
	// spreadsheet and Gmail paths to be enabled
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string

	// Spreadsheet targeting
	SpreadsheetID string // explicit override; skips title search when valid
	WorksheetName string
	LeadTimezone  string

	// Notifications
	NotificationEmail  string
	EmailProvider      string
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	SESFromEmail       string
	ChatWebhookURL     string

	// Spreadsheet-handle persistence (both optional)
	HandleStorePath string
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool

	// Timeouts
	SheetsTimeout  time.Duration
	NotifyTimeout  time.Duration
	WebhookTimeout time.Duration

	// HTTP surface tuning
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AppName:          getEnv("APP_NAME", "LeadRelay"),
		OrganizationName: getEnv("ORGANIZATION_NAME", "Your Company"),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		SpreadsheetID: getEnv("SPREADSHEET_ID", ""),
		WorksheetName: getEnv("WORKSHEET_NAME", "Leads"),
		LeadTimezone:  getEnv("LEAD_TIMEZONE", "America/New_York"),

		NotificationEmail:  getEnv("NOTIFICATION_EMAIL", "leads@example.com"),
		EmailProvider:      strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "gmail"))),
		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "LeadRelay"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		SESFromEmail:       getEnv("SES_FROM_EMAIL", ""),
		ChatWebhookURL:     getEnv("CHAT_WEBHOOK_URL", ""),

		HandleStorePath: getEnv("HANDLE_STORE_PATH", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),

		SheetsTimeout:  getEnvAsDuration("SHEETS_TIMEOUT", 30*time.Second),
		NotifyTimeout:  getEnvAsDuration("NOTIFY_TIMEOUT", 15*time.Second),
		WebhookTimeout: getEnvAsDuration("WEBHOOK_TIMEOUT", 10*time.Second),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
	}
}

// HasGoogleCredentials reports whether the OAuth triple is fully configured.
// Without it the server still runs, but submissions fail with a configuration
// error instead of reaching Google APIs.
func (c *Config) HasGoogleCredentials() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRefreshToken != ""
}

// IsProduction reports whether error details should be redacted from responses
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// SpreadsheetTitle returns the canonical per-organization spreadsheet title
func (c *Config) SpreadsheetTitle() string {
	return c.AppName + " - " + c.OrganizationName + " - Website Form Leads"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSlice splits a comma-separated environment variable, trimming blanks
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

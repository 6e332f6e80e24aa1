package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultDriveFolderID is the Drive folder that receives uploaded
// evidence images, matching the folder the Apps Script writes to.
const DefaultDriveFolderID = "1hsad5HGXK4qGu1Sf0FLvyp2R67MGHskc"

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Spreadsheet backend (Apps Script web app)
	ScriptURL     string
	DriveFolderID string

	// Direct Sheets API backend (optional alternative to the script)
	UseSheetsAPI    bool
	SpreadsheetID   string
	GoogleCredsJSON string
	GoogleCredsFile string

	// AI settlement commentary
	GeminiAPIKey string
	GeminiModel  string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration

	// Cache
	SnapshotTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Session tokens
	JWTSecret  string
	SessionTTL time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		ScriptURL:     getEnv("SCRIPT_URL", ""),
		DriveFolderID: getEnv("DRIVE_FOLDER_ID", DefaultDriveFolderID),

		UseSheetsAPI:    getEnv("USE_SHEETS_API", "false") == "true",
		SpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleCredsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),

		SnapshotTTL: getEnvDuration("SNAPSHOT_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		JWTSecret:  getEnv("JWT_SECRET", "accounting-default-dev-secret-change-me"),
		SessionTTL: getEnvDuration("SESSION_TTL", 12*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

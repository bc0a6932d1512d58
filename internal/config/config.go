package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port           string
	RequestTimeout time.Duration
	RateLimit      int

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Object store
	ObjectStore        string
	ObjectStoreDir     string
	ObjectStoreBaseURL string
	GCSBucket          string

	// Google Sheets ledger mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Outbox relay
	RelayInterval  time.Duration
	RelayBatchSize int

	DashboardCacheTTL time.Duration

	LogLevel  string
	LogFormat string
}

var (
	validBackends     = []string{"memory", "sqlite"}
	validObjectStores = []string{"local", "gcs"}
	validLogFormats   = []string{"text", "json"}
)

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8081"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		RateLimit:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/brankas.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "brankas"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_mirror"),

		ObjectStore:        getEnv("OBJECT_STORE", "local"),
		ObjectStoreDir:     getEnv("OBJECT_STORE_DIR", "./data/objects"),
		ObjectStoreBaseURL: getEnv("OBJECT_STORE_BASE_URL", "http://localhost:8081/files"),
		GCSBucket:          getEnv("GCS_BUCKET", ""),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Ledger"),

		RelayInterval:  getEnvDuration("RELAY_INTERVAL", 2*time.Second),
		RelayBatchSize: getEnvInt("RELAY_BATCH_SIZE", 50),

		DashboardCacheTTL: getEnvDuration("DASHBOARD_CACHE_TTL", 5*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RequestTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	}
	if c.RateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimit))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0o755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// AMQP is optional; without it events stay in the outbox
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains(validObjectStores, c.ObjectStore) {
		errors = append(errors, fmt.Sprintf("invalid object store '%s': must be one of %v", c.ObjectStore, validObjectStores))
	}
	switch c.ObjectStore {
	case "local":
		if c.ObjectStoreDir == "" {
			errors = append(errors, "object store directory cannot be empty when using local object store")
		}
		if u, err := url.Parse(c.ObjectStoreBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid object store base URL '%s': must be an absolute URL", c.ObjectStoreBaseURL))
		}
	case "gcs":
		if c.GCSBucket == "" {
			errors = append(errors, "GCS bucket is required when using gcs object store")
		}
	}

	if c.RelayInterval < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid relay interval %v: must be at least 100ms", c.RelayInterval))
	} else if c.RelayInterval > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid relay interval %v: must be at most 1 hour", c.RelayInterval))
	}
	if c.RelayBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid relay batch size %d: must be at least 1", c.RelayBatchSize))
	} else if c.RelayBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid relay batch size %d: must be at most 1000", c.RelayBatchSize))
	}

	if c.DashboardCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid dashboard cache TTL %v: must not be negative", c.DashboardCacheTTL))
	}

	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateWorker checks the settings the ledger mirror worker needs on top
// of Validate.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the ledger mirror worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the ledger mirror worker")
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

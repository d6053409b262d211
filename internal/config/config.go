package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is loaded from defaults, then an optional TOML file named by
// CONFIG_FILE, then environment variables. Later sources win.
type Config struct {
	// HTTP Server
	Port            string        `toml:"port"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	RateLimitPerMin int           `toml:"rate_limit_per_minute"`

	// Logging
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// TimeZone decides which calendar day is "today".
	TimeZone string `toml:"time_zone"`

	// Storage
	DataBackend  string        `toml:"data_backend"`
	SQLiteDBPath string        `toml:"sqlite_db_path"`
	CacheSize    int           `toml:"cache_size"`
	CacheTTL     time.Duration `toml:"cache_ttl"`

	// Authentication
	JWTSecret string `toml:"jwt_secret"`
	JWTIssuer string `toml:"jwt_issuer"`

	// Notifications
	NotifyQueueSize int           `toml:"notify_queue_size"`
	NotifyTimeout   time.Duration `toml:"notify_timeout"`

	// AMQP
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// SMTP
	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPUsername string `toml:"smtp_username"`
	SMTPPassword string `toml:"smtp_password"`
	SMTPFrom     string `toml:"smtp_from"`
	SMTPTLS      string `toml:"smtp_tls"`

	// Google Sheets ledger mirror
	GoogleSpreadsheetID      string `toml:"google_spreadsheet_id"`
	GoogleSheetName          string `toml:"google_sheet_name"`
	GoogleServiceAccountFile string `toml:"google_service_account_file"`
	GoogleServiceAccountJSON string `toml:"google_service_account_json"`
}

var (
	validBackends  = []string{"memory", "sqlite"}
	validLogFormat = []string{"json", "text", "tint"}
	validSMTPTLS   = []string{"mandatory", "opportunistic", "none"}
)

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:            "8080",
		ShutdownTimeout: 10 * time.Second,
		RateLimitPerMin: 60,

		LogLevel:  "info",
		LogFormat: "text",
		TimeZone:  "Local",

		DataBackend:  "sqlite",
		SQLiteDBPath: "./data/billreminder.db",
		CacheSize:    256,
		CacheTTL:     time.Minute,

		JWTIssuer: "billreminder",

		NotifyQueueSize: 64,
		NotifyTimeout:   15 * time.Second,

		AMQPExchange: "billreminder",
		AMQPQueue:    "bill_notifications",

		SMTPPort: 587,
		SMTPTLS:  "mandatory",

		GoogleSheetName: "Bills",
	}
}

// Load builds the configuration. It only fails when CONFIG_FILE names a file
// that cannot be read or parsed; call Validate for semantic checks.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMin)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.TimeZone = getEnv("TIME_ZONE", cfg.TimeZone)

	cfg.DataBackend = getEnv("DATA_BACKEND", cfg.DataBackend)
	cfg.SQLiteDBPath = getEnv("SQLITE_DB_PATH", cfg.SQLiteDBPath)
	cfg.CacheSize = getEnvInt("CACHE_SIZE", cfg.CacheSize)
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)

	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)

	cfg.NotifyQueueSize = getEnvInt("NOTIFY_QUEUE_SIZE", cfg.NotifyQueueSize)
	cfg.NotifyTimeout = getEnvDuration("NOTIFY_TIMEOUT", cfg.NotifyTimeout)

	cfg.AMQPURL = getEnv("AMQP_URL", cfg.AMQPURL)
	cfg.AMQPExchange = getEnv("AMQP_EXCHANGE", cfg.AMQPExchange)
	cfg.AMQPQueue = getEnv("AMQP_QUEUE", cfg.AMQPQueue)

	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPPort = getEnvInt("SMTP_PORT", cfg.SMTPPort)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.SMTPFrom = getEnv("SMTP_FROM", cfg.SMTPFrom)
	cfg.SMTPTLS = getEnv("SMTP_TLS", cfg.SMTPTLS)

	cfg.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", cfg.GoogleSpreadsheetID)
	cfg.GoogleSheetName = getEnv("GOOGLE_SHEET_NAME", cfg.GoogleSheetName)
	cfg.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", cfg.GoogleServiceAccountFile)
	cfg.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", cfg.GoogleServiceAccountJSON)

	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.ShutdownTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}
	if c.RateLimitPerMin < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMin))
	}

	if !slices.Contains(validLogFormat, c.LogFormat) {
		errs = append(errs, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormat))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Sprintf("invalid time zone '%s': %v", c.TimeZone, err))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	}
	if c.CacheSize < 0 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must not be negative", c.CacheSize))
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be positive when the cache is enabled", c.CacheTTL))
	}

	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		errs = append(errs, "JWT secret must be at least 32 bytes")
	}

	if c.NotifyQueueSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid notification queue size %d: must be at least 1", c.NotifyQueueSize))
	}
	if c.NotifyTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid notification timeout %v: must be at least 1 second", c.NotifyTimeout))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SMTPHost != "" {
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			errs = append(errs, fmt.Sprintf("invalid SMTP port %d: must be between 1 and 65535", c.SMTPPort))
		}
		if _, err := mail.ParseAddress(c.SMTPFrom); err != nil {
			errs = append(errs, fmt.Sprintf("invalid SMTP from address '%s': %v", c.SMTPFrom, err))
		}
		if !slices.Contains(validSMTPTLS, c.SMTPTLS) {
			errs = append(errs, fmt.Sprintf("invalid SMTP TLS policy '%s': must be one of %v", c.SMTPTLS, validSMTPTLS))
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errs = append(errs, "Google Sheet name is required when a spreadsheet ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); errors.Is(err, os.ErrNotExist) {
				errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateServer adds the checks only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return errors.New("configuration validation failed:\n- JWT_SECRET is required to run the server")
	}
	return nil
}

// Location returns the configured time zone, falling back to local time.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// NotificationsViaAMQP reports whether created-bill notices go through the
// broker rather than straight to SMTP.
func (c *Config) NotificationsViaAMQP() bool {
	return c.AMQPURL != ""
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

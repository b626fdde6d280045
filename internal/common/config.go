package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Worker   WorkerConfig
	Storage  StorageConfig
	Server   ServerConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// WorkerConfig holds the scheduler and ingestion tunables
type WorkerConfig struct {
	Enabled         bool
	BatchSize       int
	BatchDelay      time.Duration
	PollInterval    time.Duration
	ErrorBackoff    time.Duration
	JobTimeout      time.Duration
	LeaseTimeout    time.Duration
	LeaseColumn     string
	ValidateBatches bool
}

// StorageConfig holds file storage configuration
type StorageConfig struct {
	Backend   string // s3, gcs, fs
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	LocalRoot string
}

// ServerConfig holds the optional side listeners
type ServerConfig struct {
	MetricsAddr string
	HealthAddr  string
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 5),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Worker: WorkerConfig{
			Enabled:         getEnvAsBool("IMPORT_WORKER_ENABLED", true),
			BatchSize:       getEnvAsInt("IMPORT_BATCH_SIZE", 500),
			BatchDelay:      getEnvAsDuration("IMPORT_BATCH_DELAY", 100*time.Millisecond),
			PollInterval:    getEnvAsDuration("IMPORT_POLL_INTERVAL", 30*time.Second),
			ErrorBackoff:    getEnvAsDuration("IMPORT_ERROR_BACKOFF", 10*time.Second),
			JobTimeout:      getEnvAsDuration("IMPORT_JOB_TIMEOUT", 0),
			LeaseTimeout:    getEnvAsDuration("IMPORT_LEASE_TIMEOUT", 0),
			LeaseColumn:     getEnv("IMPORT_LEASE_COLUMN", "updated_at"),
			ValidateBatches: getEnvAsBool("VALIDATE_BATCHES", false),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(getEnv("STORAGE_BACKEND", "s3")),
			Bucket:    getEnv("STORAGE_BUCKET", "uploads"),
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Region:    getEnv("STORAGE_REGION", ""),
			UseSSL:    getEnvAsBool("STORAGE_USE_SSL", true),
			LocalRoot: getEnv("STORAGE_LOCAL_ROOT", "./uploads"),
		},
		Server: ServerConfig{
			MetricsAddr: getEnv("METRICS_ADDR", ""),
			HealthAddr:  getEnv("HEALTH_ADDR", ""),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("DB_URL", c.Database.DSN, Required).
		Field("IMPORT_BATCH_SIZE", c.Worker.BatchSize, Positive).
		Field("IMPORT_POLL_INTERVAL", c.Worker.PollInterval, Positive).
		Field("STORAGE_BACKEND", c.Storage.Backend, OneOf("s3", "gcs", "fs"))

	switch c.Storage.Backend {
	case "s3":
		v.Field("STORAGE_ENDPOINT", c.Storage.Endpoint, Required).
			Field("STORAGE_BUCKET", c.Storage.Bucket, Required)
	case "gcs":
		v.Field("STORAGE_BUCKET", c.Storage.Bucket, Required)
	case "fs":
		v.Field("STORAGE_LOCAL_ROOT", c.Storage.LocalRoot, Required)
	}
	if c.Worker.LeaseTimeout > 0 {
		// the lease is stamped once at claim, so a job must end before it expires
		v.Field("IMPORT_LEASE_COLUMN", c.Worker.LeaseColumn, Required).
			Field("IMPORT_JOB_TIMEOUT", c.Worker.JobTimeout, Positive,
				ShorterThan("IMPORT_LEASE_TIMEOUT", c.Worker.LeaseTimeout))
	}

	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

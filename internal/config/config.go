package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"

	defaultJWTSecret = "supersecretkey"
)

type Config struct {
	Port string

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string

	// StoreDriver selects the document store: "mongo" (default) or "postgres".
	StoreDriver string

	MongoURI string
	MongoDB  string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	JWTSecret string
	// JWTExpireHours is the token lifetime in hours (default 24). Set via JWT_EXPIRE_HOURS.
	JWTExpireHours int

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	// When empty, the API listens with plain HTTP.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json". LogLevel is debug, info (default), warn or error.
	LogFormat string
	LogLevel  string

	// CORSAllowedOrigins is set via CORS_ALLOWED_ORIGINS (comma-separated).
	// When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string

	// MaxBodyBytes caps request bodies (default 1 MiB).
	MaxBodyBytes int64

	// AuditExportSchedule is a cron expression. When empty the archive exporter is disabled.
	AuditExportSchedule string
	AuditExportPath     string
	AuditExportBatch    int
	// AuditExportSettleSeconds holds back entries younger than this many seconds.
	AuditExportSettleSeconds int
}

// Load reads a .env file when one exists, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() Config {
	return Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "dev"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "timetable"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "timetable"),
		DBUser: getEnv("DB_USER", "timetable"),
		DBPass: getEnv("DB_PASS", "timetable"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),

		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		AuditExportSchedule: getEnv("AUDIT_EXPORT_SCHEDULE", ""),
		AuditExportPath:     getEnv("AUDIT_EXPORT_PATH", "audit-archive.jsonl"),
		AuditExportBatch:    getEnvInt("AUDIT_EXPORT_BATCH", 500),

		AuditExportSettleSeconds: getEnvInt("AUDIT_EXPORT_SETTLE_SECONDS", 30),
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case DriverMongo, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverPostgres, c.StoreDriver))
	}
	if c.Env == "prod" && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		errs = append(errs, errors.New("JWT_SECRET must be set in prod"))
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		errs = append(errs, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together"))
	}
	return errors.Join(errs...)
}

// TLSEnabled reports whether both certificate and key are configured.
func (c Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

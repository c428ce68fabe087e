package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Config is the full runtime configuration, read from the environment.
type Config struct {
	Environment string
	Server      Server
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	Audit       AuditConfig
	Report      ReportConfig
	LogLevel    string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects the storage backend. An empty URL means in-memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the token revocation list connection. Empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type AuthConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	// DevTokenTTL bounds tokens minted by the issue-token command.
	DevTokenTTL time.Duration
}

// AuditConfig enables the outbox relay when brokers are set.
type AuditConfig struct {
	KafkaBrokers  []string
	Topic         string
	RelayInterval time.Duration
}

type ReportConfig struct {
	TimeZone string
	Location *time.Location
}

// IsProduction reports whether strict settings are enforced.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesPostgres reports whether the postgres backend is configured.
func (c *Config) UsesPostgres() bool {
	return c.Database.URL != ""
}

// Load reads an optional .env file, then builds Config from the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds Config from environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("VH_ENV", "development"),
		Server: Server{
			Addr:            getEnv("VH_ADDR", ":8080"),
			RequestTimeout:  getDuration("VH_REQUEST_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDuration("VH_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Auth: AuthConfig{
			SigningKey:  getEnv("JWT_SIGNING_KEY", devSigningKey),
			Issuer:      getEnv("JWT_ISSUER", "volunteerhub"),
			Audience:    getEnv("JWT_AUDIENCE", "volunteerhub-api"),
			DevTokenTTL: getDuration("JWT_DEV_TOKEN_TTL", time.Hour),
		},
		Audit: AuditConfig{
			KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:         getEnv("AUDIT_TOPIC", "volunteerhub.audit"),
			RelayInterval: getDuration("AUDIT_RELAY_INTERVAL", 2*time.Second),
		},
		Report: ReportConfig{
			TimeZone: getEnv("REPORT_TIMEZONE", "Asia/Singapore"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	loc, err := time.LoadLocation(cfg.Report.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", cfg.Report.TimeZone, err)
	}
	cfg.Report.Location = loc

	if cfg.IsProduction() && cfg.Auth.SigningKey == devSigningKey {
		return nil, errors.New("JWT_SIGNING_KEY must be set in production")
	}
	if len(cfg.Audit.KafkaBrokers) > 0 && !cfg.UsesPostgres() {
		return nil, errors.New("KAFKA_BROKERS requires DATABASE_URL: the audit outbox lives in postgres")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

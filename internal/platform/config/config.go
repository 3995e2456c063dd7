package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreBolt     = "bolt"
)

// Server captures HTTP server and registry level configuration.
type Server struct {
	Addr string
	// Deployer becomes the registry admin the first time the store is deployed.
	Deployer string
	Store    StoreConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Audit    AuditConfig
	Log      LogConfig
}

type StoreConfig struct {
	Driver      string
	DatabaseURL string
	BoltPath    string
}

// RedisConfig configures the optional share cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
}

// AuditConfig selects the audit sink. Without brokers events stay in memory.
type AuditConfig struct {
	KafkaBrokers []string
	Topic        string
	AsyncBuffer  int
}

type LogConfig struct {
	Level  string
	Format string
}

// RegistryCacheTTL is the default lifetime of cached share counts.
var RegistryCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is loaded first when present; real
// environment variables take precedence over it.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	cfg := Server{
		Addr:     getenv("SHARELEDGER_ADDR", ":8080"),
		Deployer: os.Getenv("SHARELEDGER_DEPLOYER"),
		Store: StoreConfig{
			Driver:      getenv("STORE_DRIVER", StoreMemory),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			BoltPath:    getenv("BOLT_PATH", "data/shareledger.db"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second, &errs),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second, &errs),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second, &errs),
			CacheTTL:     durationEnv("REGISTRY_CACHE_TTL", RegistryCacheTTL, &errs),
		},
		Auth: AuthConfig{
			// Use a default for development - should be overridden in production
			JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        getenv("JWT_ISSUER", "shareledger"),
		},
		Audit: AuditConfig{
			KafkaBrokers: listEnv("KAFKA_BROKERS"),
			Topic:        getenv("AUDIT_TOPIC", "shareledger.audit"),
			AsyncBuffer:  intEnv("AUDIT_ASYNC_BUFFER", 0, &errs),
		},
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Server{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Server) validate() []error {
	var errs []error
	if c.Deployer == "" {
		errs = append(errs, errors.New("SHARELEDGER_DEPLOYER is required"))
	}
	switch c.Store.Driver {
	case StoreMemory, StoreBolt:
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}
	if c.Audit.AsyncBuffer < 0 {
		errs = append(errs, errors.New("AUDIT_ASYNC_BUFFER must not be negative"))
	}
	return errs
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int, errs *[]error) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

// listEnv splits a comma separated variable, dropping blanks and duplicates.
// Order is preserved.
func listEnv(key string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

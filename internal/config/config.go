package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Fanatic033/shoro-market/internal/domain"
	pkgconfig "github.com/Fanatic033/shoro-market/pkg/config"
	"github.com/Fanatic033/shoro-market/pkg/database"
	"github.com/Fanatic033/shoro-market/pkg/tracing"
)

// ServiceName identifies the service in logs, traces and events.
const ServiceName = "shoro-market"

// Config holds all configuration for the service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"CART_HTTP_PORT" envDefault:"8003"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Cart TTL in hours (default: 7 days)
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"168"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"shoro"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"shoro"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"shoro_market"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	SlowQueryMillis  int    `env:"POSTGRES_SLOW_QUERY_MS" envDefault:"200"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Commerce API
	CommerceAPIURL   string        `env:"COMMERCE_API_URL" envDefault:"https://crmdev.shoro.kg/api"`
	CommerceClientID int64         `env:"COMMERCE_CLIENT_ID" envDefault:"4808"`
	CommerceAPIKey   string        `env:"COMMERCE_API_KEY" envDefault:""`
	CommerceTimeout  time.Duration `env:"COMMERCE_TIMEOUT" envDefault:"15s"`
	CatalogRefresh   time.Duration `env:"CATALOG_REFRESH_INTERVAL" envDefault:"5m"`

	// Cart rules, amounts in tyiyn
	DeliveryFreeThreshold int64    `env:"DELIVERY_FREE_THRESHOLD" envDefault:"5000000"`
	DeliveryFee           int64    `env:"DELIVERY_FEE" envDefault:"50000"`
	PackagedKeywords      []string `env:"PACKAGED_CATEGORY_KEYWORDS" envDefault:"cups,стакан" envSeparator:","`
	SessionCacheSize      int      `env:"CART_SESSION_CACHE_SIZE" envDefault:"10000"`
	PersistQueueSize      int      `env:"PERSIST_QUEUE_SIZE" envDefault:"1024"`

	// Checkout throttling per customer
	CheckoutRatePerMinute float64 `env:"CHECKOUT_RATE_PER_MINUTE" envDefault:"6"`
	CheckoutBurst         int     `env:"CHECKOUT_BURST" envDefault:"3"`

	// Auth. Without a secret the X-User-ID header set by the gateway is trusted.
	JWTSecret string `env:"JWT_SECRET" envDefault:""`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL_HOURS must not be negative")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if !strings.HasPrefix(c.CommerceAPIURL, "http://") && !strings.HasPrefix(c.CommerceAPIURL, "https://") {
		return fmt.Errorf("COMMERCE_API_URL must be an http(s) URL")
	}
	if c.CommerceClientID <= 0 {
		return fmt.Errorf("COMMERCE_CLIENT_ID must be positive")
	}
	if c.CatalogRefresh <= 0 {
		return fmt.Errorf("CATALOG_REFRESH_INTERVAL must be positive")
	}
	if c.DeliveryFreeThreshold < 0 || c.DeliveryFee < 0 {
		return fmt.Errorf("delivery amounts must not be negative")
	}
	if c.CheckoutRatePerMinute < 0 || c.CheckoutBurst < 0 {
		return fmt.Errorf("checkout rate limit must not be negative")
	}
	if c.CheckoutRatePerMinute > 0 && c.CheckoutBurst < 1 {
		return fmt.Errorf("CHECKOUT_BURST must be at least 1 when CHECKOUT_RATE_PER_MINUTE is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	return nil
}

// CartTTLDuration is the snapshot TTL.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// DeliveryPolicy returns the configured delivery terms.
func (c *Config) DeliveryPolicy() domain.DeliveryPolicy {
	return domain.DeliveryPolicy{FreeThreshold: c.DeliveryFreeThreshold, Fee: c.DeliveryFee}
}

// Postgres returns the PostgreSQL connection settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPassword,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSLMode,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Redis returns the Redis connection settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Addr:         c.RedisAddr,
		Password:     c.RedisPass,
		DB:           c.RedisDB,
		PoolSize:     20,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "1.0.0",
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTELEndpoint,
		SampleRate:     c.OTELSampleRate,
		Enabled:        c.OTELEnabled,
	}
}

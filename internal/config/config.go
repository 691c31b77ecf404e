package config

import (
	"fmt"
	"time"

	"github.com/ziyoonee/gochagetcha-sub000/pkg/config"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/database"
	"github.com/ziyoonee/gochagetcha-sub000/pkg/validator"
)

// Config holds all configuration for the API server, loaded from the
// environment.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"gachagetcha-api" validate:"required"`
	Environment string `env:"ENVIRONMENT" envDefault:"development" validate:"oneof=development staging production"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080" validate:"gte=1,lte=65535"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`

	// CatalogMode selects the listing data path: "store" queries PostgreSQL
	// per request, "memory" serves from an in-memory snapshot kept current by
	// the event consumer.
	CatalogMode string `env:"CATALOG_MODE" envDefault:"store" validate:"oneof=store memory"`

	SearchTimeout   time.Duration `env:"SEARCH_TIMEOUT" envDefault:"2s"`
	AvailabilityTTL time.Duration `env:"AVAILABILITY_TTL" envDefault:"5m"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"gachagetcha"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"gachagetcha"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"gachagetcha"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	PostgresMinConns int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"gachagetcha-api"`
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if err := validator.Validate(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	if c.AvailabilityTTL <= 0 {
		return fmt.Errorf("AVAILABILITY_TTL must be positive")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS required when KAFKA_ENABLED is true")
	}
	return nil
}

// Postgres returns the database connection configuration.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPassword,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSLMode,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        c.PostgresMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Redis returns the cache connection configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

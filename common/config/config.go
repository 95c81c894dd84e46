package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage engine identifiers
const (
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
	EngineMemory   = "memory"
)

// Config holds all service configuration
type Config struct {
	Service ServiceConfig
	Storage StorageConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Events  EventsConfig
	Metrics MetricsConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	StaticDir   string
}

// StorageConfig selects and configures the persistence engine
type StorageConfig struct {
	Engine     string // "postgres", "sqlite" or "memory"
	SQLitePath string
	Postgres   PostgresConfig
}

// PostgresConfig holds Postgres connection settings
type PostgresConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// CacheConfig holds read-cache settings
type CacheConfig struct {
	Enabled    bool
	Backend    string // "memory" or "redis"
	DefaultTTL time.Duration
}

// RedisConfig holds Redis connection settings (used when Cache.Backend is "redis")
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// EventsConfig holds the purchase-event publisher settings
type EventsConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// MetricsConfig holds observability settings
type MetricsConfig struct {
	Enabled bool
}

// Load loads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load(serviceName string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 5500),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
			StaticDir:   getEnv("STATIC_DIR", ""),
		},
		Storage: StorageConfig{
			Engine:     getEnv("STORAGE_ENGINE", EngineSQLite),
			SQLitePath: getEnv("SQLITE_PATH", "student.db"),
			Postgres: PostgresConfig{
				Host:        getEnv("POSTGRES_HOST", "localhost"),
				Port:        getEnvInt("POSTGRES_PORT", 5432),
				Database:    getEnv("POSTGRES_DB", "kiosk"),
				User:        getEnv("POSTGRES_USER", "kiosk"),
				Password:    getEnv("POSTGRES_PASSWORD", "kiosk"),
				MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 20),
				MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
				MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
				MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
			},
		},
		Cache: CacheConfig{
			Enabled:    getEnvBool("CACHE_ENABLED", true),
			Backend:    getEnv("CACHE_BACKEND", "memory"),
			DefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Events: EventsConfig{
			Enabled: getEnvBool("EVENTS_ENABLED", false),
			Brokers: getEnvSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "kiosk.ledger"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("ENABLE_METRICS", true),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	switch c.Storage.Engine {
	case EnginePostgres:
		if c.Storage.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Storage.Postgres.MaxConns < c.Storage.Postgres.MinConns {
			return fmt.Errorf("max_conns must be >= min_conns")
		}
	case EngineSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case EngineMemory:
	default:
		return fmt.Errorf("unknown storage engine: %s", c.Storage.Engine)
	}

	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}

	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when events are enabled")
	}

	return nil
}

// PostgresURL returns the PostgreSQL connection string
func (c *Config) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Storage.Postgres.User,
		c.Storage.Postgres.Password,
		c.Storage.Postgres.Host,
		c.Storage.Postgres.Port,
		c.Storage.Postgres.Database,
	)
}

// RedisAddr returns the host:port address of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

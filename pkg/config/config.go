package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Store drivers understood by cmd/main.go
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DBConfig holds database configuration
type DBConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// RedisConfig holds the payment idempotency claim store. An empty Addr
// keeps claims in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	ClaimTTL time.Duration
}

// Enabled reports whether a Redis address was configured
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// StripeConfig holds hosted checkout configuration
type StripeConfig struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
}

// Config holds all configuration
type Config struct {
	ServiceName  string
	DB           DBConfig
	Server       ServerConfig
	JWT          JWTConfig
	Log          LogConfig
	Metrics      MetricsConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	PackagesFile string
}

// Load reads .env (optional) and the process environment
func Load(serviceName string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	clientURL := getEnv("CLIENT_URL", "http://localhost:5173")

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Driver:          getEnv("DB_DRIVER", DriverPostgres),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", serviceName),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "3000"),
			Env:  getEnv("APP_ENV", "development"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", serviceName),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			ClaimTTL: getEnvAsDuration("PAYMENT_CLAIM_TTL", 10*time.Minute),
		},
		Stripe: StripeConfig{
			SecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
			Currency:   getEnv("STRIPE_CURRENCY", "usd"),
			SuccessURL: getEnv("STRIPE_SUCCESS_URL", clientURL+"/payment-success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:  getEnv("STRIPE_CANCEL_URL", clientURL+"/dashboard/upgrade-package"),
		},
		PackagesFile: getEnv("PACKAGES_FILE", "config/packages.yaml"),
	}

	if config.DB.Driver != DriverPostgres && config.DB.Driver != DriverMemory {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.DB.Driver)
	}

	return config, nil
}

// LogConfig returns the configuration as zap fields, secrets omitted
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_driver", c.DB.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Bool("redis_enabled", c.Redis.Enabled()),
		zap.Bool("stripe_enabled", c.Stripe.SecretKey != ""),
		zap.String("packages_file", c.PackagesFile),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	switch getEnv(key, "") {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}

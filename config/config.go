package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	DBDriver        string
	DBHost          string
	DBPort          int
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	DBTimeZone      string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	Port       string
	GinMode    string
	CORSOrigin string

	JWTSecret string
	JWTTTL    time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RestaurantPageSize int
	// TimeZone is the zone visit dates and times are expressed in.
	TimeZone string

	LogLevel  string
	LogFormat string

	StaffEmail    string
	StaffPassword string
}

func Load() (*Config, error) {
	cfg := &Config{
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnvInt("DB_PORT", 3306),
		DBUser:          getEnv("DB_USER", "booking"),
		DBPassword:      getEnv("DB_PASSWORD", "booking"),
		DBName:          getEnv("DB_NAME", "table_booking"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		DBTimeZone:      getEnv("DB_TIMEZONE", "UTC"),
		SQLitePath:      getEnv("DB_SQLITE_PATH", "booking.db"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		Port:       getEnv("PORT", "8080"),
		GinMode:    getEnv("GIN_MODE", "debug"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getEnvDuration("JWT_TTL", 24*time.Hour),

		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 20),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		RestaurantPageSize: getEnvInt("RESTAURANT_PAGE_SIZE", 6),
		TimeZone:           getEnv("TIMEZONE", "UTC"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		StaffEmail:    getEnv("STAFF_EMAIL", ""),
		StaffPassword: getEnv("STAFF_PASSWORD", ""),
	}

	switch cfg.DBDriver {
	case DriverMySQL, DriverPostgres:
		if cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "" {
			return nil, fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("invalid DB config: DB_SQLITE_PATH must not be empty")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	// the development secret is public, so release builds must bring their own
	if cfg.JWTSecret == "" && cfg.GinMode == "release" {
		return nil, fmt.Errorf("JWT_SECRET must be set when GIN_MODE=release")
	}
	if cfg.RestaurantPageSize <= 0 {
		return nil, fmt.Errorf("RESTAURANT_PAGE_SIZE must be positive")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"phmagent/internal/errors"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Sensor   SensorConfig
	Server   ServerConfig
	MCP      MCPConfig
	Analysis AnalysisConfig
	LogLevel string
}

// DatabaseConfig holds database connection settings. URL wins over the
// individual fields when set.
type DatabaseConfig struct {
	Driver          string
	URL             string
	User            string
	Password        string
	Name            string
	Host            string
	Port            int
	SSLMode         string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// SensorConfig names the table holding sensor readings. TimeColumn and
// ValueColumn, when both set, replace column-name sniffing.
type SensorConfig struct {
	Table       string
	TimeColumn  string
	ValueColumn string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// MCPConfig holds tool-server settings
type MCPConfig struct {
	Transport      string
	Port           int
	SessionTimeout time.Duration
}

// AnalysisConfig holds engine defaults
type AnalysisConfig struct {
	OutlierThreshold  float64
	ReportConcurrency int
	MaxRangeDays      int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Sensor:   loadSensorConfig(),
		Server:   loadServerConfig(),
		MCP:      loadMCPConfig(),
		Analysis: loadAnalysisConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	driver := strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverPostgres))
	defaultPort := 5432
	if driver == DriverMySQL {
		defaultPort = 3306
	}

	return DatabaseConfig{
		Driver:          driver,
		URL:             os.Getenv("DATABASE_URL"),
		User:            getEnvOrDefault("DB_USER", ""),
		Password:        getEnvOrDefault("DB_PASS", ""),
		Name:            getEnvOrDefault("DB_NAME", "phm"),
		Host:            getEnvOrDefault("DB_HOST", "localhost"),
		Port:            getEnvIntOrDefault("DB_PORT", defaultPort),
		SSLMode:         getEnvOrDefault("SSL_MODE", "disable"),
		MaxOpenConns:    getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 10),
		ConnMaxLifetime: getEnvDurationOrDefault("DB_CONN_MAX_LIFETIME", time.Hour),
	}
}

func loadSensorConfig() SensorConfig {
	return SensorConfig{
		Table:       getEnvOrDefault("SENSOR_TABLE", "equipment_data"),
		TimeColumn:  getEnvOrDefault("SENSOR_TIME_COLUMN", ""),
		ValueColumn: getEnvOrDefault("SENSOR_VALUE_COLUMN", ""),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadMCPConfig() MCPConfig {
	return MCPConfig{
		Transport:      strings.ToLower(getEnvOrDefault("MCP_TRANSPORT", "stdio")),
		Port:           getEnvIntOrDefault("MCP_PORT", 7056),
		SessionTimeout: getEnvDurationOrDefault("MCP_SESSION_TIMEOUT", 30*time.Minute),
	}
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		OutlierThreshold:  getEnvFloatOrDefault("OUTLIER_THRESHOLD", 3.0),
		ReportConcurrency: getEnvIntOrDefault("REPORT_CONCURRENCY", 4),
		MaxRangeDays:      getEnvIntOrDefault("MAX_RANGE_DAYS", 366),
	}
}

func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return errors.ConfigInvalid("DB_DRIVER must be postgres or mysql, got " + config.Database.Driver)
	}
	if config.Database.URL == "" && config.Database.Host == "" {
		return errors.ConfigInvalid("DATABASE_URL or DB_HOST is required")
	}
	if config.Sensor.Table == "" {
		return errors.ConfigInvalid("SENSOR_TABLE is required")
	}
	if (config.Sensor.TimeColumn == "") != (config.Sensor.ValueColumn == "") {
		return errors.ConfigInvalid("SENSOR_TIME_COLUMN and SENSOR_VALUE_COLUMN must be set together")
	}
	if !(config.Analysis.OutlierThreshold > 0) {
		return errors.ConfigInvalid("OUTLIER_THRESHOLD must be greater than zero")
	}
	if config.Analysis.ReportConcurrency < 1 {
		return errors.ConfigInvalid("REPORT_CONCURRENCY must be at least 1")
	}
	switch config.MCP.Transport {
	case "stdio", "http":
	default:
		return errors.ConfigInvalid("MCP_TRANSPORT must be stdio or http")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment
// variables or a .env file.
//
// Example YAML/ENV equivalent:
//
//	SERVER_PORT=8080
//	TIINGO_TOKEN_FILE=./tiingo_token.txt
//	TIINGO_BASE_URL=https://api.tiingo.com/tiingo/daily
//	TIINGO_TEST_URL=https://api.tiingo.com
//	HTTP_TIMEOUT_SEC=30
//	FETCH_PARALLEL=0
//	POSTGRES_HOST=localhost
//	POSTGRES_PORT=5432
//	POSTGRES_USER=admin
//	POSTGRES_PASSWORD=secret
//	POSTGRES_DB=tickerpulse
//	POSTGRES_SSLMODE=disable
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Tiingo   TiingoConfig   // upstream pricing API settings
	Postgres PostgresConfig // PostgreSQL connection settings
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string
}

// TiingoConfig defines how the pricing API client is built.
//
// Fields:
//   - TokenFile: path of the file holding the bearer token.
//   - BaseURL: prices base URL.
//   - TestURL: health-check base URL.
//   - Timeout: overall HTTP timeout per request.
//   - MaxParallel: fetch worker pool size; 0 means one worker per CPU.
type TiingoConfig struct {
	TokenFile   string
	BaseURL     string
	TestURL     string
	Timeout     time.Duration
	MaxParallel int
}

// PostgresConfig defines connection details for PostgreSQL.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	URL      string // computed DSN used by database/sql
}

// AppConfig is the globally accessible configuration instance, populated once
// via LoadConfig().
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from a .env file or
// directly from environment variables.
//
// Precedence (lowest to highest): defaults, .env file, environment variables.
// Missing required fields terminate the process via validateConfig().
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")

	viper.SetDefault("TIINGO_TOKEN_FILE", "./tiingo_token.txt")
	viper.SetDefault("TIINGO_BASE_URL", "https://api.tiingo.com/tiingo/daily")
	viper.SetDefault("TIINGO_TEST_URL", "https://api.tiingo.com")
	viper.SetDefault("HTTP_TIMEOUT_SEC", 30)
	viper.SetDefault("FETCH_PARALLEL", 0)

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "postgres")
	viper.SetDefault("POSTGRES_PASSWORD", "postgres")
	viper.SetDefault("POSTGRES_DB", "tickerpulse")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Tiingo: TiingoConfig{
			TokenFile:   viper.GetString("TIINGO_TOKEN_FILE"),
			BaseURL:     viper.GetString("TIINGO_BASE_URL"),
			TestURL:     viper.GetString("TIINGO_TEST_URL"),
			Timeout:     time.Duration(viper.GetInt("HTTP_TIMEOUT_SEC")) * time.Second,
			MaxParallel: viper.GetInt("FETCH_PARALLEL"),
		},
		Postgres: PostgresConfig{
			Host:     viper.GetString("POSTGRES_HOST"),
			Port:     viper.GetInt("POSTGRES_PORT"),
			User:     viper.GetString("POSTGRES_USER"),
			Password: viper.GetString("POSTGRES_PASSWORD"),
			DBName:   viper.GetString("POSTGRES_DB"),
			SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		},
	}

	AppConfig.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		AppConfig.Postgres.User,
		AppConfig.Postgres.Password,
		AppConfig.Postgres.Host,
		AppConfig.Postgres.Port,
		AppConfig.Postgres.DBName,
		AppConfig.Postgres.SSLMode,
	)

	validateConfig()
}

// validateConfig ensures required variables are present and terminates the
// application if they are missing.
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Tiingo.TokenFile == "" {
		missing = append(missing, "TIINGO_TOKEN_FILE")
	}
	if AppConfig.Tiingo.BaseURL == "" {
		missing = append(missing, "TIINGO_BASE_URL")
	}
	if AppConfig.Tiingo.TestURL == "" {
		missing = append(missing, "TIINGO_TEST_URL")
	}
	if AppConfig.Postgres.Host == "" {
		missing = append(missing, "POSTGRES_HOST")
	}
	if AppConfig.Postgres.Port == 0 {
		missing = append(missing, "POSTGRES_PORT")
	}
	if AppConfig.Postgres.User == "" {
		missing = append(missing, "POSTGRES_USER")
	}
	if AppConfig.Postgres.DBName == "" {
		missing = append(missing, "POSTGRES_DB")
	}

	if len(missing) > 0 {
		log.Fatalf("missing required environment variables: %v\n", missing)
	}
}

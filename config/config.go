package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string     `env:"DATABASE_URL" validate:"required"`
	Port               string     `env:"PORT" envDefault:"8080"`
	GoEnv              string     `env:"GO_ENV" envDefault:"development" validate:"oneof=development test production"`
	Auth0Domain        string     `env:"AUTH0_DOMAIN" validate:"required_if=GoEnv production"`
	Auth0Audience      string     `env:"AUTH0_AUDIENCE" validate:"required_if=GoEnv production"`
	AWSRegion          string     `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSS3Bucket        string     `env:"AWS_S3_BUCKET" validate:"required_if=GoEnv production"`
	AWSS3Endpoint      string     `env:"AWS_S3_ENDPOINT" validate:"omitempty,url"` // S3-compatible stores, path-style
	AWSAccessKeyID     string     `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string     `env:"AWS_SECRET_ACCESS_KEY"`
	LogLevel           slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat          string     `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	CORSAllowedOrigins []string   `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	MaxRequestBodyMB   int64      `env:"MAX_REQUEST_BODY_MB" envDefault:"10" validate:"gt=0"`
}

var (
	configValidator = validator.New()
	appConfig       *Config
)

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	goEnv := os.Getenv("GO_ENV")
	if goEnv == "" {
		goEnv = "development"
	}

	// Try to load environment-specific file first, then .env.
	// In production, environment variables are set directly so missing files are fine.
	envFile := fmt.Sprintf(".env.%s", goEnv)
	if err := godotenv.Load(envFile); err != nil {
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file found, using system environment variables")
		}
	} else {
		slog.Debug("loaded configuration file", "file", envFile)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appConfig = &cfg
	return &cfg, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetConfig returns the most recently loaded configuration
func GetConfig() *Config {
	return appConfig
}

// SetConfig sets the configuration instance (primarily for testing)
func SetConfig(cfg *Config) {
	appConfig = cfg
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// MaxRequestBodyBytes returns the request body limit in bytes
func (c *Config) MaxRequestBodyBytes() int64 {
	return c.MaxRequestBodyMB << 20
}

package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// DBConfig holds the Postgres connection settings.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Config holds the application's configuration values.
type Config struct {
	ServerPort          string
	LogLevel            string
	LogFormat           string
	GitHubToken         string
	GitHubWebhookSecret string
	OpenAIAPIKey        string
	OpenAIModel         string
	MaxTokens           int
	Temperature         float64
	ContextLines        int
	MaxFileSize         int64
	CustomRulesPath     string
	AnalyzeTimeout      time.Duration
	MaxWorkers          int
	MaxFileConcurrency  int
	Database            *DBConfig
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o")
	viper.SetDefault("MAX_TOKENS", 4000)
	viper.SetDefault("TEMPERATURE", 0.1)
	viper.SetDefault("CONTEXT_LINES", 5)
	viper.SetDefault("MAX_FILE_SIZE", 1_000_000)
	viper.SetDefault("CUSTOM_RULES_PATH", "rules/code-standards.md")
	viper.SetDefault("ANALYZE_TIMEOUT", "2m")
	viper.SetDefault("MAX_WORKERS", 5)
	viper.SetDefault("MAX_FILE_CONCURRENCY", 3)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_NAME", "pr_review")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}
	viper.AutomaticEnv()

	if viper.GetString("GITHUB_TOKEN") == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN must be set")
	}
	if viper.GetString("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY must be set")
	}

	cfg := &Config{
		ServerPort:          viper.GetString("SERVER_PORT"),
		LogLevel:            viper.GetString("LOG_LEVEL"),
		LogFormat:           viper.GetString("LOG_FORMAT"),
		GitHubToken:         viper.GetString("GITHUB_TOKEN"),
		GitHubWebhookSecret: viper.GetString("GITHUB_WEBHOOK_SECRET"),
		OpenAIAPIKey:        viper.GetString("OPENAI_API_KEY"),
		OpenAIModel:         viper.GetString("OPENAI_MODEL"),
		MaxTokens:           viper.GetInt("MAX_TOKENS"),
		Temperature:         viper.GetFloat64("TEMPERATURE"),
		ContextLines:        viper.GetInt("CONTEXT_LINES"),
		MaxFileSize:         viper.GetInt64("MAX_FILE_SIZE"),
		CustomRulesPath:     viper.GetString("CUSTOM_RULES_PATH"),
		AnalyzeTimeout:      viper.GetDuration("ANALYZE_TIMEOUT"),
		MaxWorkers:          viper.GetInt("MAX_WORKERS"),
		MaxFileConcurrency:  viper.GetInt("MAX_FILE_CONCURRENCY"),
		Database: &DBConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that viper defaults alone cannot guarantee.
func (c *Config) Validate() error {
	if c.ContextLines < 0 {
		return fmt.Errorf("CONTEXT_LINES must not be negative, got %d", c.ContextLines)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("TEMPERATURE must be between 0 and 2, got %g", c.Temperature)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("MAX_WORKERS must be positive, got %d", c.MaxWorkers)
	}
	if c.MaxFileConcurrency <= 0 {
		return fmt.Errorf("MAX_FILE_CONCURRENCY must be positive, got %d", c.MaxFileConcurrency)
	}
	return nil
}

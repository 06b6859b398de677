package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServiceEndpoints holds the base URLs of the backend microservices the
// application composes. All of them are consumed over HTTP/JSON only.
type ServiceEndpoints struct {
	AuthBaseURL     string `mapstructure:"auth_base_url"`
	QuestionBaseURL string `mapstructure:"question_base_url"`
	ResultsBaseURL  string `mapstructure:"results_base_url"`
	ContactBaseURL  string `mapstructure:"contact_base_url"`
}

// WorkerConfig configures the best-effort wake ping for the externally hosted
// AI task worker. The ping is optional; an empty WakeURL disables it.
type WorkerConfig struct {
	WakeURL            string `mapstructure:"wake_url"`
	WakeTimeoutSeconds int    `mapstructure:"wake_timeout_seconds"`
}

// InsightsConfig tunes the report-generation poll loop.
type InsightsConfig struct {
	PollIntervalMillis  int `mapstructure:"poll_interval_millis"`
	PollDeadlineSeconds int `mapstructure:"poll_deadline_seconds"`
}

// AdvisorConfig configures the streaming career-advisor chat (OpenAI-compatible endpoint).
type AdvisorConfig struct {
	APIKey       string `mapstructure:"api_key"` // Name of the env var holding the key; replaced with the value at load time
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

// Config holds the application's configuration.
type Config struct {
	Server struct {
		Port string
	}
	Database struct {
		DSN string // "memory" or a SQLite file path; holds advisor chat history only
	}
	Services        ServiceEndpoints `mapstructure:"services"`
	Worker          WorkerConfig     `mapstructure:"worker"`
	Insights        InsightsConfig   `mapstructure:"insights"`
	Advisor         AdvisorConfig    `mapstructure:"advisor"`
	CacheTTLSeconds int              `mapstructure:"cache_ttl_seconds"`
	JWTSecret       string           `mapstructure:"jwt_secret"` // Verifies tokens minted by the auth service
}

// AppConfig is the global configuration instance.
var AppConfig Config

// CacheTTL returns the configured domain-service cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// PollInterval returns the task-status poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Insights.PollIntervalMillis) * time.Millisecond
}

// PollDeadline returns the overall report-generation deadline.
func (c *Config) PollDeadline() time.Duration {
	return time.Duration(c.Insights.PollDeadlineSeconds) * time.Second
}

// WakeTimeout returns the bound on the best-effort worker wake ping.
func (c *Config) WakeTimeout() time.Duration {
	return time.Duration(c.Worker.WakeTimeoutSeconds) * time.Second
}

// LoadConfig loads configuration from .env, config.yaml and environment variables.
func LoadConfig() {
	// .env first so viper's env lookups below see it.
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: [Config] No .env file found, relying on config.yaml and the environment.")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../config") // For running from locations like tests

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.dsn", "memory")
	viper.SetDefault("cache_ttl_seconds", 300) // 5 minutes
	viper.SetDefault("insights.poll_interval_millis", 1500)
	viper.SetDefault("insights.poll_deadline_seconds", 300)
	viper.SetDefault("worker.wake_timeout_seconds", 3)
	viper.SetDefault("advisor.history_limit", 10)
	viper.SetDefault("advisor.model", "gpt-4o-mini")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("WARN: [Config] Configuration file (config.yaml) not found. Using environment variables and defaults.")
		} else {
			log.Fatalf("FATAL: [Config] Error reading configuration file: %v", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("FATAL: [Config] Failed to unmarshal configuration into AppConfig struct: %v", err)
	}

	// Environment variable overrides for deployment-sensitive values.
	if port := os.Getenv("SERVER_PORT"); port != "" {
		AppConfig.Server.Port = port
		log.Printf("INFO: [Config] Server port overridden by environment variable SERVER_PORT: %s", port)
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		AppConfig.JWTSecret = secret
	}
	overrideEndpoint := func(envVar string, target *string) {
		if v := os.Getenv(envVar); v != "" {
			*target = v
			log.Printf("INFO: [Config] %s overridden from environment.", envVar)
		}
	}
	overrideEndpoint("AUTH_SERVICE_URL", &AppConfig.Services.AuthBaseURL)
	overrideEndpoint("QUESTION_SERVICE_URL", &AppConfig.Services.QuestionBaseURL)
	overrideEndpoint("RESULTS_SERVICE_URL", &AppConfig.Services.ResultsBaseURL)
	overrideEndpoint("CONTACT_SERVICE_URL", &AppConfig.Services.ContactBaseURL)
	overrideEndpoint("WORKER_WAKE_URL", &AppConfig.Worker.WakeURL)

	// The advisor api_key field names the env var holding the actual key.
	if envVarName := AppConfig.Advisor.APIKey; envVarName != "" {
		if envValue := os.Getenv(envVarName); envValue != "" {
			AppConfig.Advisor.APIKey = envValue
			log.Printf("INFO: [Config] Loaded advisor API key from environment variable '%s'.", envVarName)
		} else {
			log.Printf("WARN: [Config] Advisor API key env var '%s' is not set; advisor chat will be unavailable.", envVarName)
			AppConfig.Advisor.APIKey = ""
		}
	}

	if AppConfig.JWTSecret == "" {
		log.Println("WARN: [Config] JWT secret is not configured. All authenticated endpoints will reject requests.")
	}

	log.Println("INFO: [Config] Configuration loading complete.")
}

package config

import (
	"fmt"
	"os"
	"time"
)

// Config represents application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Helpdesk HelpdeskConfig `json:"helpdesk"`
	Poll     PollConfig     `json:"poll"`
	Redis    RedisConfig    `json:"redis"`
	Session  SessionConfig  `json:"session"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents the local board API server configuration
type ServerConfig struct {
	Port         string        `json:"port"`
	Host         string        `json:"host"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
	Environment  string        `json:"environment"`
}

// HelpdeskConfig represents the backend API configuration
type HelpdeskConfig struct {
	BaseURL string        `json:"base_url"`
	Timeout time.Duration `json:"timeout"`
}

// PollConfig represents the snapshot refresh cadence
type PollConfig struct {
	TicketInterval    time.Duration `json:"ticket_interval"`
	DashboardInterval time.Duration `json:"dashboard_interval"`
}

// RedisConfig represents the shared session store configuration
type RedisConfig struct {
	URL string `json:"url"`
}

// SessionConfig represents where the bearer credential comes from:
// a shared redis session (TokenKey) or a fixed token from the
// environment for single-operator use
type SessionConfig struct {
	TokenKey    string `json:"token_key"`
	StaticToken string `json:"-"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json, text
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8090"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Helpdesk: HelpdeskConfig{
			BaseURL: getEnv("HELPDESK_BASE_URL", "http://localhost:8080"),
			Timeout: getEnvDuration("HELPDESK_TIMEOUT", 15*time.Second),
		},
		Poll: PollConfig{
			TicketInterval:    getEnvDuration("POLL_TICKET_INTERVAL", 10*time.Second),
			DashboardInterval: getEnvDuration("POLL_DASHBOARD_INTERVAL", 30*time.Second),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Session: SessionConfig{
			TokenKey:    getEnv("SESSION_TOKEN_KEY", "fixboard:session:token"),
			StaticToken: getEnv("SESSION_STATIC_TOKEN", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Helpdesk.BaseURL == "" {
		return fmt.Errorf("helpdesk base URL is required")
	}

	if c.Redis.URL == "" && c.Session.StaticToken == "" {
		return fmt.Errorf("either REDIS_URL or SESSION_STATIC_TOKEN must be set")
	}

	if c.Poll.TicketInterval < time.Second {
		return fmt.Errorf("ticket poll interval must be at least 1s")
	}

	return nil
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

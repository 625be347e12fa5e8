// Package config handles application configuration loading and management.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	DocDB     DocDBConfig
	Session   SessionConfig
	Persona   PersonaConfig
	Directory DirectoryConfig
	Augment   AugmentConfig
	Auth      AuthConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host    string
	Port    int
	GinMode string
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds session-cache configuration.
// Type selects the backend: "memory" (in-process, default) or "redis".
type CacheConfig struct {
	Type     string
	Host     string
	Port     string
	Password string
	DB       int
}

// DocDBConfig holds document database configuration.
type DocDBConfig struct {
	Type     string
	URI      string
	Database string
	Timeout  time.Duration
}

// SessionConfig holds session lifecycle configuration.
type SessionConfig struct {
	// IdleTimeout is how long a session stays live without traffic.
	IdleTimeout time.Duration
	// HistoryCap bounds the conversation history length per session.
	HistoryCap int
	// CacheSweepInterval is how often expired cache entries are evicted.
	CacheSweepInterval time.Duration
	// RetentionWindow is how long terminal sessions are kept in the repository.
	RetentionWindow time.Duration
	// RetentionSweepInterval is how often the repository retention sweep runs.
	RetentionSweepInterval time.Duration
}

// PersonaConfig holds the virtual agent persona configuration.
type PersonaConfig struct {
	AgentName string
	Company   string
	Tone      string
	Greeting  string
	Farewell  string
	Locale    string
}

// DirectoryConfig selects the customer/business-data backend:
// "fixture" (deterministic sample data) or "docdb".
type DirectoryConfig struct {
	Type string
}

// AugmentConfig holds generative-text rewrite configuration.
// An empty APIKey disables augmentation entirely.
type AugmentConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Enabled reports whether the rewrite step should be wired at all.
func (c AugmentConfig) Enabled() bool {
	return c.APIKey != ""
}

// AuthConfig holds API authentication configuration.
type AuthConfig struct {
	ServiceKey string
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvAsInt("SERVER_PORT", 8080),
			GinMode: getEnv("GIN_MODE", "debug"),
		},
		Cache: CacheConfig{
			Type:     getEnv("CACHE_TYPE", "memory"),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		DocDB: DocDBConfig{
			Type:     getEnv("DOCDB_TYPE", "mongodb"),
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "billy-agente-x"),
			Timeout:  getEnvAsDuration("MONGODB_TIMEOUT_SECONDS", 10*time.Second),
		},
		Session: SessionConfig{
			IdleTimeout:            getEnvAsDuration("SESSION_IDLE_TIMEOUT_SECONDS", 30*time.Minute),
			HistoryCap:             getEnvAsInt("SESSION_HISTORY_CAP", 50),
			CacheSweepInterval:     getEnvAsDuration("SESSION_CACHE_SWEEP_SECONDS", 5*time.Minute),
			RetentionWindow:        getEnvAsDuration("SESSION_RETENTION_SECONDS", 30*24*time.Hour),
			RetentionSweepInterval: getEnvAsDuration("SESSION_RETENTION_SWEEP_SECONDS", 24*time.Hour),
		},
		Persona: PersonaConfig{
			AgentName: getEnv("PERSONA_NAME", "Billy, Agente X"),
			Company:   getEnv("PERSONA_COMPANY", "Seguradora X"),
			Tone:      getEnv("PERSONA_TONE", "profissional, cordial e assertivo"),
			Greeting:  getEnv("PERSONA_GREETING", "Olá, sou Billy, seu agente de atendimento X. Em que posso ajudar hoje?"),
			Farewell:  getEnv("PERSONA_FAREWELL", "Foi um prazer atendê-lo! Tenha um ótimo dia e conte sempre conosco."),
			Locale:    getEnv("PERSONA_LOCALE", "pt-BR"),
		},
		Directory: DirectoryConfig{
			Type: getEnv("DIRECTORY_TYPE", "fixture"),
		},
		Augment: AugmentConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvAsInt("OPENAI_MAX_TOKENS", 1000),
			Temperature: getEnvAsFloat("OPENAI_TEMPERATURE", 0.7),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT_SECONDS", 15*time.Second),
		},
		Auth: AuthConfig{
			ServiceKey: getEnv("SERVICE_KEY", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsFloat gets an environment variable as a float with a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvAsDuration gets an environment variable holding a number of seconds
// as a duration with a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return time.Duration(intValue) * time.Second
		}
	}
	return defaultValue
}

// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	SessionTTL  time.Duration
	OpenAI      OpenAIConfig
	Transcript  TranscriptConfig
}

// OpenAIConfig controls the prompt-rewriting and speech sidecar. An empty
// APIKey disables the sidecar; canned prompts are sent verbatim.
type OpenAIConfig struct {
	APIKey   string
	Model    string
	TTSVoice string
}

// TranscriptConfig controls NDJSON conversation transcript logging.
type TranscriptConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("TRANSCRIPT_QUEUE_SIZE", 1000)
	if queueSize <= 0 {
		queueSize = 1000
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/onboarding.db"),
		SessionTTL:  getEnvDuration("SESSION_TTL", 60*time.Minute),
		OpenAI: OpenAIConfig{
			APIKey:   getEnv("OPENAI_API_KEY", ""),
			Model:    getEnv("OPENAI_MODEL", "gpt-4.1-nano"),
			TTSVoice: getEnv("OPENAI_TTS_VOICE", "alloy"),
		},
		Transcript: TranscriptConfig{
			Enabled:       getEnvBool("TRANSCRIPT_ENABLED", true),
			Dir:           getEnv("TRANSCRIPT_DIR", "./data/logs/transcripts"),
			GlobalEnabled: getEnvBool("TRANSCRIPT_GLOBAL_ENABLED", false),
			GlobalPath:    getEnv("TRANSCRIPT_GLOBAL_PATH", "./data/logs/transcripts/all.ndjson"),
			QueueSize:     queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Transcript.Dir == "" {
		return fmt.Errorf("TRANSCRIPT_DIR cannot be empty")
	}
	if c.Transcript.GlobalPath == "" {
		return fmt.Errorf("TRANSCRIPT_GLOBAL_PATH cannot be empty")
	}
	if c.Transcript.QueueSize <= 0 {
		return fmt.Errorf("TRANSCRIPT_QUEUE_SIZE must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AIEnabled returns true if the OpenAI sidecar is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAI.APIKey != ""
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

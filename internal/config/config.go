package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string

	GeminiAPIKey  string
	GeminiBaseURL string
	SessionSecret string

	DatabaseURL string
	RedisURL    string

	OtelExporterOTLPEndpoint string
	SentryDSN                string

	Port           string
	AllowedOrigins []string

	Generation GenerationConfig
	Session    SessionConfig
}

type GenerationConfig struct {
	TextModel   string `yaml:"text_model"`
	ImageModel  string `yaml:"image_model"`
	Language    string `yaml:"language"`
	AspectRatio string `yaml:"aspect_ratio"`
	Locale      string `yaml:"locale"`
}

type SessionConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

func Load() (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("API_KEY")
	}

	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		GeminiAPIKey:             apiKey,
		GeminiBaseURL:            os.Getenv("GEMINI_BASE_URL"),
		SessionSecret:            os.Getenv("SESSION_SECRET"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Port:                     os.Getenv("PORT"),
	}
	if origin := os.Getenv("ALLOWED_ORIGIN"); origin != "" {
		cfg.AllowedOrigins = []string{origin}
	}

	// Load from YAML file if available
	if err := cfg.LoadFromYAML("config.yaml"); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	// Set defaults
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "chef-digital"
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = "1.0.0"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	cfg.SetGenerationDefaults()
	cfg.SetSessionDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File not found is not an error
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Generation GenerationConfig `yaml:"generation"`
		Session    SessionConfig    `yaml:"session"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlConfig.Generation.TextModel != "" {
		c.Generation.TextModel = yamlConfig.Generation.TextModel
	}
	if yamlConfig.Generation.ImageModel != "" {
		c.Generation.ImageModel = yamlConfig.Generation.ImageModel
	}
	if yamlConfig.Generation.Language != "" {
		c.Generation.Language = yamlConfig.Generation.Language
	}
	if yamlConfig.Generation.AspectRatio != "" {
		c.Generation.AspectRatio = yamlConfig.Generation.AspectRatio
	}
	if yamlConfig.Generation.Locale != "" {
		c.Generation.Locale = yamlConfig.Generation.Locale
	}
	if yamlConfig.Session.TTL > 0 {
		c.Session.TTL = yamlConfig.Session.TTL
	}

	return nil
}

func (c *Config) SetGenerationDefaults() {
	if c.Generation.TextModel == "" {
		c.Generation.TextModel = "gemini-3-flash-preview"
	}
	if c.Generation.ImageModel == "" {
		c.Generation.ImageModel = "gemini-2.5-flash-image"
	}
	if c.Generation.Language == "" {
		c.Generation.Language = "Português do Brasil"
	}
	if c.Generation.AspectRatio == "" {
		c.Generation.AspectRatio = "3:4"
	}
	if c.Generation.Locale == "" {
		c.Generation.Locale = "pt-BR"
	}
}

func (c *Config) SetSessionDefaults() {
	if c.Session.TTL <= 0 {
		c.Session.TTL = 2 * time.Hour
	}
}

// The Gemini key is deliberately not required here: without it every generation
// fails at the text stage instead of the process refusing to start.
func (c *Config) validate() error {
	if c.Env == "production" && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	return nil
}

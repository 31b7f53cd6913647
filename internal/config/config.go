package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment  string `validate:"required"`
	Port         string `validate:"required,numeric"`
	LogLevel     string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat    string `validate:"oneof=text json"`
	MaxBodyBytes int64  `validate:"gt=0"`
	Relay        RelayConfig
	Auth         AuthConfig
}

// RelayConfig holds the upstream inference API configuration. APIKey is
// optional at load time; a missing key fails each invocation instead.
type RelayConfig struct {
	EndpointURL     string         `validate:"required,url"`
	APIKey          string         `validate:"-"`
	InputField      string         `validate:"required"`
	TextFields      []string       `validate:"min=1,dive,required"`
	FallbackMessage string         `validate:"required"`
	Parameters      map[string]any `validate:"-"`
	Timeout         time.Duration  `validate:"gt=0"`
}

// AuthConfig holds the optional JWT guard configuration for the HTTP server
type AuthConfig struct {
	JWTSecret   string
	Issuer      string
	ExpiryHours int `validate:"gte=0"`
}

// Enabled returns true when inbound JWT authentication is configured
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// DefaultEndpointURL is the summarization model used when none is configured
const DefaultEndpointURL = "https://api-inference.huggingface.co/models/facebook/distilbart-cnn-6-6"

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8081")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("MAX_BODY_BYTES", 1024*1024)
	v.SetDefault("RELAY_ENDPOINT_URL", DefaultEndpointURL)
	v.SetDefault("RELAY_INPUT_FIELD", "prompt")
	v.SetDefault("RELAY_TEXT_FIELDS", "summary_text,generated_text")
	v.SetDefault("RELAY_FALLBACK_MESSAGE", "No output")
	v.SetDefault("RELAY_MAX_NEW_TOKENS", 150)
	v.SetDefault("RELAY_TIMEOUT", "25s")
	v.SetDefault("AUTH_ISSUER", "inference-relay")
	v.SetDefault("AUTH_TOKEN_HOURS", 24)

	// The secret keeps the name used by the hosting dashboards
	if err := v.BindEnv("HF_API_KEY", "HF_API_KEY", "RELAY_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind API key: %w", err)
	}

	if path := os.Getenv("RELAY_CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	parameters, err := generationParameters(v)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Environment:  v.GetString("ENVIRONMENT"),
		Port:         v.GetString("PORT"),
		LogLevel:     strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:    strings.ToLower(v.GetString("LOG_FORMAT")),
		MaxBodyBytes: v.GetInt64("MAX_BODY_BYTES"),
		Relay: RelayConfig{
			EndpointURL:     v.GetString("RELAY_ENDPOINT_URL"),
			APIKey:          strings.TrimSpace(v.GetString("HF_API_KEY")),
			InputField:      v.GetString("RELAY_INPUT_FIELD"),
			TextFields:      stringList(v, "RELAY_TEXT_FIELDS"),
			FallbackMessage: v.GetString("RELAY_FALLBACK_MESSAGE"),
			Parameters:      parameters,
			Timeout:         v.GetDuration("RELAY_TIMEOUT"),
		},
		Auth: AuthConfig{
			JWTSecret:   v.GetString("AUTH_JWT_SECRET"),
			Issuer:      v.GetString("AUTH_ISSUER"),
			ExpiryHours: v.GetInt("AUTH_TOKEN_HOURS"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for missing or malformed values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsProduction returns true for production deployments
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// generationParameters builds the "parameters" object sent upstream.
// RELAY_PARAMETERS is a JSON object (or a map in the config file) merged over max_new_tokens.
func generationParameters(v *viper.Viper) (map[string]any, error) {
	parameters := map[string]any{}
	if maxTokens := v.GetInt("RELAY_MAX_NEW_TOKENS"); maxTokens > 0 {
		parameters["max_new_tokens"] = maxTokens
	}

	if raw := v.Get("RELAY_PARAMETERS"); raw != nil {
		if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
			return parameters, nil
		}
		extra := v.GetStringMap("RELAY_PARAMETERS")
		if len(extra) == 0 {
			return nil, fmt.Errorf("RELAY_PARAMETERS must be a non-empty JSON object")
		}
		for key, value := range extra {
			parameters[key] = value
		}
	}

	return parameters, nil
}

// stringList reads a comma separated env value or a list from the config file
func stringList(v *viper.Viper, key string) []string {
	s, ok := v.Get(key).(string)
	if !ok {
		return v.GetStringSlice(key)
	}

	var values []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}

// GetEnv gets an environment variable with a fallback value
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// GetEnvAsBool gets an environment variable as boolean with a fallback value
func GetEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

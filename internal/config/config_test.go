package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearRelayEnv unsets every variable Load reads so the host environment cannot leak in
func clearRelayEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"ENVIRONMENT", "PORT", "LOG_LEVEL", "LOG_FORMAT", "MAX_BODY_BYTES",
		"HF_API_KEY", "RELAY_API_KEY", "RELAY_ENDPOINT_URL", "RELAY_INPUT_FIELD",
		"RELAY_TEXT_FIELDS", "RELAY_FALLBACK_MESSAGE", "RELAY_MAX_NEW_TOKENS",
		"RELAY_PARAMETERS", "RELAY_TIMEOUT", "RELAY_CONFIG_FILE",
		"AUTH_JWT_SECRET", "AUTH_ISSUER", "AUTH_TOKEN_HOURS",
	}
	for _, key := range envVars {
		// t.Setenv restores the original value after the test
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearRelayEnv(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Port != "8081" {
		t.Errorf("Expected default port 8081, got %s", config.Port)
	}
	if config.Environment != "development" {
		t.Errorf("Expected development environment, got %s", config.Environment)
	}
	if config.Relay.EndpointURL != DefaultEndpointURL {
		t.Errorf("Expected default endpoint, got %s", config.Relay.EndpointURL)
	}
	if config.Relay.InputField != "prompt" {
		t.Errorf("Expected input field prompt, got %s", config.Relay.InputField)
	}
	if len(config.Relay.TextFields) != 2 || config.Relay.TextFields[0] != "summary_text" || config.Relay.TextFields[1] != "generated_text" {
		t.Errorf("Unexpected text fields: %v", config.Relay.TextFields)
	}
	if config.Relay.FallbackMessage != "No output" {
		t.Errorf("Expected fallback 'No output', got %s", config.Relay.FallbackMessage)
	}
	if config.Relay.Timeout != 25*time.Second {
		t.Errorf("Expected 25s timeout, got %v", config.Relay.Timeout)
	}
	if got := config.Relay.Parameters["max_new_tokens"]; got != 150 {
		t.Errorf("Expected max_new_tokens 150, got %v", got)
	}
	if config.Relay.APIKey != "" {
		t.Error("Expected empty API key")
	}
	if config.Auth.Enabled() {
		t.Error("Expected auth to be disabled by default")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearRelayEnv(t)

	t.Setenv("PORT", "9000")
	t.Setenv("RELAY_API_KEY", "  hf_alias  ")
	t.Setenv("RELAY_ENDPOINT_URL", "https://api-inference.huggingface.co/models/gpt2")
	t.Setenv("RELAY_INPUT_FIELD", "inputs")
	t.Setenv("RELAY_TEXT_FIELDS", "generated_text, summary_text")
	t.Setenv("RELAY_MAX_NEW_TOKENS", "64")
	t.Setenv("RELAY_PARAMETERS", `{"temperature": 0.7, "return_full_text": false}`)
	t.Setenv("RELAY_TIMEOUT", "5s")
	t.Setenv("AUTH_JWT_SECRET", "jwt-secret")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", config.Port)
	}
	if config.Relay.APIKey != "hf_alias" {
		t.Errorf("Expected API key from RELAY_API_KEY, got %q", config.Relay.APIKey)
	}
	if config.Relay.InputField != "inputs" {
		t.Errorf("Expected input field inputs, got %s", config.Relay.InputField)
	}
	if config.Relay.TextFields[0] != "generated_text" || config.Relay.TextFields[1] != "summary_text" {
		t.Errorf("Unexpected text fields: %v", config.Relay.TextFields)
	}
	if config.Relay.Timeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", config.Relay.Timeout)
	}
	if got := config.Relay.Parameters["max_new_tokens"]; got != 64 {
		t.Errorf("Expected max_new_tokens 64, got %v", got)
	}
	if got := config.Relay.Parameters["temperature"]; got != 0.7 {
		t.Errorf("Expected temperature 0.7, got %v", got)
	}
	if got := config.Relay.Parameters["return_full_text"]; got != false {
		t.Errorf("Expected return_full_text false, got %v", got)
	}
	if !config.Auth.Enabled() {
		t.Error("Expected auth to be enabled")
	}
}

func TestLoad_PrimaryAPIKeyName(t *testing.T) {
	clearRelayEnv(t)
	t.Setenv("HF_API_KEY", "hf_primary")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Relay.APIKey != "hf_primary" {
		t.Errorf("Expected API key hf_primary, got %q", config.Relay.APIKey)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearRelayEnv(t)

	path := filepath.Join(t.TempDir(), "relay.yaml")
	content := `relay_endpoint_url: https://example.com/models/bart
relay_text_fields:
  - generated_text
relay_parameters:
  max_new_tokens: 32
  do_sample: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("RELAY_CONFIG_FILE", path)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Relay.EndpointURL != "https://example.com/models/bart" {
		t.Errorf("Expected endpoint from file, got %s", config.Relay.EndpointURL)
	}
	if len(config.Relay.TextFields) != 1 || config.Relay.TextFields[0] != "generated_text" {
		t.Errorf("Unexpected text fields: %v", config.Relay.TextFields)
	}
	if got := config.Relay.Parameters["max_new_tokens"]; got != 32 {
		t.Errorf("Expected max_new_tokens 32 from file, got %v (%T)", got, got)
	}
	if got := config.Relay.Parameters["do_sample"]; got != true {
		t.Errorf("Expected do_sample true, got %v", got)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{name: "bad endpoint", envVars: map[string]string{"RELAY_ENDPOINT_URL": "not-a-url"}},
		{name: "bad timeout", envVars: map[string]string{"RELAY_TIMEOUT": "0s"}},
		{name: "bad log format", envVars: map[string]string{"LOG_FORMAT": "xml"}},
		{name: "bad parameters", envVars: map[string]string{"RELAY_PARAMETERS": "[1,2]"}},
		{name: "empty text fields", envVars: map[string]string{"RELAY_TEXT_FIELDS": " , "}},
		{name: "missing config file", envVars: map[string]string{"RELAY_CONFIG_FILE": "/nonexistent/relay.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearRelayEnv(t)
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			if _, err := Load(); err == nil {
				t.Error("Expected Load to fail")
			}
		})
	}
}

func TestAdaptConfigForServerless(t *testing.T) {
	base := func() *Config {
		return &Config{
			Environment: "development",
			LogFormat:   "text",
			Relay:       RelayConfig{Timeout: time.Minute},
		}
	}

	config := AdaptConfigForServerless(base(), &ServerlessConfig{IsLambda: false})
	if config.LogFormat != "text" || config.Relay.Timeout != time.Minute {
		t.Error("Expected server mode config to be untouched")
	}

	config = AdaptConfigForServerless(base(), &ServerlessConfig{IsLambda: true, Stage: "prod"})
	if config.LogFormat != "json" {
		t.Errorf("Expected json logs in serverless mode, got %s", config.LogFormat)
	}
	if config.Relay.Timeout != serverlessTimeoutCeiling {
		t.Errorf("Expected timeout capped at %v, got %v", serverlessTimeoutCeiling, config.Relay.Timeout)
	}
	if config.Environment != "prod" {
		t.Errorf("Expected environment from stage, got %s", config.Environment)
	}
}

func TestDetectServerless(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "relay")
	t.Setenv("NETLIFY", "true")
	t.Setenv("NETLIFY_DEV", "")
	t.Setenv("STAGE", "")

	cfg := detectServerless()
	if !cfg.IsLambda {
		t.Error("Expected lambda detection")
	}
	if cfg.Platform != PlatformNetlify {
		t.Errorf("Expected netlify platform, got %q", cfg.Platform)
	}
	if cfg.Stage != "dev" {
		t.Errorf("Expected default stage dev, got %s", cfg.Stage)
	}

	t.Setenv("NETLIFY", "")
	if got := detectServerless().Platform; got != PlatformLambda {
		t.Errorf("Expected aws-lambda platform, got %q", got)
	}

	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "")
	if got := detectServerless(); got.IsLambda || got.Platform != PlatformNone {
		t.Errorf("Expected no serverless platform, got %+v", got)
	}
}

package server

import (
	"testing"
	"time"

	"inference-relay/internal/config"

	"github.com/sirupsen/logrus"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment:  "test",
		Port:         "8081",
		LogLevel:     "debug",
		LogFormat:    "json",
		MaxBodyBytes: 1024,
		Relay: config.RelayConfig{
			EndpointURL:     config.DefaultEndpointURL,
			APIKey:          "hf_test",
			InputField:      "prompt",
			TextFields:      []string{"summary_text", "generated_text"},
			FallbackMessage: "No output",
			Parameters:      map[string]any{"max_new_tokens": 150},
			Timeout:         10 * time.Second,
		},
	}
}

// TestNewContainer verifies that the container can be created successfully
func TestNewContainer(t *testing.T) {
	container, err := NewContainer(testConfig())
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}

	if container.Relay == nil {
		t.Fatal("Relay is nil")
	}
	if container.Logger == nil {
		t.Fatal("Logger is nil")
	}
	if container.AuthService != nil {
		t.Error("Expected no auth service without a JWT secret")
	}

	upstream := container.Relay.Config()
	if upstream.EndpointURL != config.DefaultEndpointURL {
		t.Errorf("Unexpected endpoint: %s", upstream.EndpointURL)
	}
	if upstream.Timeout != 10*time.Second {
		t.Errorf("Expected 10s timeout, got %v", upstream.Timeout)
	}
	if upstream.APIKey == "hf_test" {
		t.Error("Expected API key to be redacted")
	}

	if err := container.Close(); err != nil {
		t.Errorf("Failed to close container: %v", err)
	}
}

func TestNewContainer_WithAuth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{JWTSecret: "secret", Issuer: "inference-relay", ExpiryHours: 1}

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	defer container.Close()

	if container.AuthService == nil {
		t.Fatal("Expected auth service")
	}

	token, err := container.AuthService.GenerateToken("client")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	claims, err := container.AuthService.ValidateToken(token)
	if err != nil {
		t.Fatalf("Failed to validate token: %v", err)
	}
	if claims.Issuer != "inference-relay" {
		t.Errorf("Expected issuer inference-relay, got %s", claims.Issuer)
	}
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	if _, err := NewContainer(nil); err == nil {
		t.Error("Expected error for nil config")
	}

	cfg := testConfig()
	cfg.Relay.EndpointURL = "not a url"
	if _, err := NewContainer(cfg); err == nil {
		t.Error("Expected error for invalid endpoint")
	}
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig()
	logger := NewLogger(cfg)
	if logger.GetLevel() != logrus.DebugLevel {
		t.Errorf("Expected debug level, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Errorf("Expected JSON formatter, got %T", logger.Formatter)
	}

	cfg.LogLevel = "bogus"
	cfg.LogFormat = "text"
	logger = NewLogger(cfg)
	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected info level fallback, got %v", logger.GetLevel())
	}
	if _, ok := logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Errorf("Expected text formatter, got %T", logger.Formatter)
	}
}

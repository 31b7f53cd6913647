package server

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"inference-relay/internal/config"
	"inference-relay/internal/middleware"
	"inference-relay/internal/relay"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *logrus.Logger
	Relay       *relay.Relay
	AuthService *middleware.AuthService // nil when AUTH_JWT_SECRET is unset

	// Internal dependencies
	client *http.Client
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	logger := NewLogger(cfg)

	client := &http.Client{}
	rel, err := relay.New(upstreamConfig(cfg.Relay), client, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay: %w", err)
	}

	container := &Container{
		Config: cfg,
		Logger: logger,
		Relay:  rel,
		client: client,
	}

	if cfg.Auth.Enabled() {
		container.AuthService = middleware.NewAuthService(&middleware.AuthConfig{
			JWTSecret:     cfg.Auth.JWTSecret,
			TokenDuration: time.Duration(cfg.Auth.ExpiryHours) * time.Hour,
			Issuer:        cfg.Auth.Issuer,
		})
	}

	upstream := rel.Config()
	logger.WithFields(logrus.Fields{
		"endpoint":    upstream.EndpointURL,
		"input_field": upstream.InputField,
		"text_fields": upstream.TextFields,
		"timeout":     upstream.Timeout.String(),
		"api_key":     upstream.APIKey,
		"auth":        container.AuthService != nil,
	}).Info("Container initialized")

	return container, nil
}

// NewLogger builds a logrus logger from LOG_LEVEL and LOG_FORMAT
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func upstreamConfig(cfg config.RelayConfig) relay.UpstreamConfig {
	return relay.UpstreamConfig{
		EndpointURL:     cfg.EndpointURL,
		APIKey:          cfg.APIKey,
		InputField:      cfg.InputField,
		TextFields:      cfg.TextFields,
		FallbackMessage: cfg.FallbackMessage,
		Parameters:      cfg.Parameters,
		Timeout:         cfg.Timeout,
	}
}

// Close cleans up all resources
func (c *Container) Close() error {
	if c.client != nil {
		c.client.CloseIdleConnections()
	}
	return nil
}

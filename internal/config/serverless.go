package config

import (
	"os"
	"sync"
	"time"
)

// Function platforms the relay can be deployed to
const (
	PlatformNone    = ""
	PlatformLambda  = "aws-lambda"
	PlatformNetlify = "netlify"
)

// serverlessTimeoutCeiling keeps the upstream call inside the synchronous
// function limit so the platform never kills the invocation first
const serverlessTimeoutCeiling = 25 * time.Second

// ServerlessConfig holds serverless-specific configuration
type ServerlessConfig struct {
	IsLambda     bool
	Platform     string
	FunctionName string
	Region       string
	Stage        string
}

// Global serverless configuration
var (
	serverlessConfig *ServerlessConfig
	serverlessOnce   sync.Once
)

// GetServerlessConfig returns the serverless configuration
func GetServerlessConfig() *ServerlessConfig {
	serverlessOnce.Do(func() {
		serverlessConfig = detectServerless()
	})
	return serverlessConfig
}

func detectServerless() *ServerlessConfig {
	cfg := &ServerlessConfig{
		IsLambda:     isRunningInLambda(),
		FunctionName: os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		Region:       os.Getenv("AWS_REGION"),
		Stage:        GetEnv("STAGE", "dev"),
	}

	switch {
	case GetEnvAsBool("NETLIFY", false) || os.Getenv("NETLIFY_DEV") != "":
		cfg.Platform = PlatformNetlify
	case cfg.IsLambda:
		cfg.Platform = PlatformLambda
	}

	return cfg
}

// isRunningInLambda detects if the application is running in AWS Lambda.
// Netlify functions run on Lambda and set the same variable.
func isRunningInLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// IsServerlessMode returns true if running in serverless mode
func IsServerlessMode() bool {
	return GetServerlessConfig().IsLambda
}

// GetDeploymentMode returns the current deployment mode
func GetDeploymentMode() string {
	if IsServerlessMode() {
		return "serverless"
	}
	return "server"
}

// AdaptConfigForServerless modifies configuration for serverless deployment
func AdaptConfigForServerless(config *Config, serverless *ServerlessConfig) *Config {
	if serverless == nil || !serverless.IsLambda {
		return config
	}

	// Function logs are shipped to CloudWatch, which indexes JSON
	config.LogFormat = "json"

	if config.Relay.Timeout > serverlessTimeoutCeiling {
		config.Relay.Timeout = serverlessTimeoutCeiling
	}

	if serverless.Stage != "" && config.Environment == "development" {
		config.Environment = serverless.Stage
	}

	return config
}

// GetOptimizedConfig returns configuration optimized for the current deployment mode
func GetOptimizedConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	// Apply serverless adaptations if needed
	config = AdaptConfigForServerless(config, GetServerlessConfig())

	return config, nil
}

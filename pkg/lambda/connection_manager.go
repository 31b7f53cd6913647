package lambda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inference-relay/internal/config"
	"inference-relay/pkg/server"

	"github.com/sirupsen/logrus"
)

// staleAfter is how long a warm container may sit idle before IsHealthy reports false
const staleAfter = 5 * time.Minute

// ConnectionManager keeps the service container alive across warm Lambda invocations
type ConnectionManager struct {
	container *server.Container
	lastUsed  time.Time
	mu        sync.RWMutex
	loadCfg   func() (*config.Config, error)
}

var (
	globalConnectionManager *ConnectionManager
	connectionManagerOnce   sync.Once
)

// GetConnectionManager returns the global connection manager instance
func GetConnectionManager() *ConnectionManager {
	connectionManagerOnce.Do(func() {
		globalConnectionManager = NewConnectionManager(config.GetOptimizedConfig)
	})
	return globalConnectionManager
}

// NewConnectionManager creates a manager that loads configuration lazily with loadCfg
func NewConnectionManager(loadCfg func() (*config.Config, error)) *ConnectionManager {
	return &ConnectionManager{loadCfg: loadCfg}
}

// GetContainer returns the service container, initializing if necessary.
// A container idle for longer than staleAfter is released and rebuilt, and
// a failed initialization is retried on the next call.
func (cm *ConnectionManager) GetContainer(ctx context.Context) (*server.Container, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cm.IsHealthy() {
		cm.mu.Lock()
		defer cm.mu.Unlock()
		if cm.container != nil {
			cm.lastUsed = time.Now()
			return cm.container, nil
		}
	} else {
		cm.mu.Lock()
		defer cm.mu.Unlock()
	}

	// Another caller may have rebuilt the container while we waited
	if cm.container != nil && time.Since(cm.lastUsed) < staleAfter {
		cm.lastUsed = time.Now()
		return cm.container, nil
	}

	if err := cm.release(); err != nil {
		return nil, fmt.Errorf("failed to release stale container: %w", err)
	}

	if cm.loadCfg == nil {
		return nil, fmt.Errorf("connection manager has no configuration loader")
	}
	cfg, err := cm.loadCfg()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	container, err := server.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}

	cm.container = container
	cm.lastUsed = time.Now()

	serverless := config.GetServerlessConfig()
	container.Logger.WithFields(logrus.Fields{
		"platform":      serverless.Platform,
		"function_name": serverless.FunctionName,
		"region":        serverless.Region,
		"stage":         serverless.Stage,
		"mode":          config.GetDeploymentMode(),
	}).Info("Relay container started")

	return container, nil
}

// IsHealthy checks if the connection manager holds a recently used container
func (cm *ConnectionManager) IsHealthy() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if cm.container == nil {
		return false
	}

	return time.Since(cm.lastUsed) < staleAfter
}

// Cleanup releases the container; the next GetContainer builds a new one
func (cm *ConnectionManager) Cleanup() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.release()
}

// release closes the container. Callers hold cm.mu.
func (cm *ConnectionManager) release() error {
	if cm.container == nil {
		return nil
	}
	if err := cm.container.Close(); err != nil {
		return err
	}
	cm.container = nil
	return nil
}

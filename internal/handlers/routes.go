package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"inference-relay/internal/middleware"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Relay        RelayService
	AuthService  *middleware.AuthService // nil disables the JWT guard
	Logger       *logrus.Logger
	MaxBodyBytes int64
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	relayHandler := NewRelayHandler(config.Relay, config.Logger)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "inference-relay",
			"version": Version,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	if config.AuthService != nil {
		v1.Use(middleware.Authentication(config.AuthService))
	}
	{
		// Every method reaches the relay so it can answer 405 itself
		v1.Any("/relay", relayHandler.Relay)
	}
}

// SetupMiddleware configures global middleware
func SetupMiddleware(router *gin.Engine, config *RouterConfig) {
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(config.Logger))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders())

	if config.MaxBodyBytes > 0 {
		router.Use(middleware.RequestSizeLimit(config.MaxBodyBytes))
	}
}

// SetupDevelopmentRoutes adds development-only routes
func SetupDevelopmentRoutes(router *gin.Engine, config *RouterConfig) {
	if config.AuthService == nil {
		return
	}

	dev := router.Group("/dev")
	{
		// Generate demo token for testing
		dev.POST("/token", func(c *gin.Context) {
			token, err := config.AuthService.GenerateToken("dev-client")
			if err != nil {
				c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
		})
	}
}

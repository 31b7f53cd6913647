package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"inference-relay/internal/metrics"
	"inference-relay/internal/middleware"
	"inference-relay/internal/relay"
	"inference-relay/pkg/lambda"
)

// Surfaces reported in metrics
const (
	SurfaceHTTP   = "http"
	SurfaceLambda = "lambda"
)

// RelayService is the inference relay as seen by the transport surfaces
type RelayService interface {
	Handle(ctx context.Context, req *relay.Request) *relay.Response
}

// RelayHandler exposes the relay over gin and Lambda
type RelayHandler struct {
	relay  RelayService
	logger *logrus.Logger
}

// NewRelayHandler creates a new relay handler
func NewRelayHandler(service RelayService, logger *logrus.Logger) *RelayHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RelayHandler{
		relay:  service,
		logger: logger,
	}
}

// Relay godoc
// @Summary Relay a prompt to the inference API
// @Description Forwards the prompt to the configured inference model and returns the generated or summarized text
// @Tags relay
// @Accept json
// @Produce json
// @Param request body RelayRequest true "Prompt to relay"
// @Success 200 {object} RelayResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 405 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Security BearerAuth
// @Router /relay [post]
func (h *RelayHandler) Relay(c *gin.Context) {
	start := time.Now()
	metrics.InflightRequests.Inc()
	defer metrics.InflightRequests.Dec()

	// Only POST bodies are read; other methods go straight to the relay's
	// method check so an oversized body cannot mask the 405.
	var body []byte
	if c.Request.Method == http.MethodPost && c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			status, message := readErrorStatus(err)
			_ = c.Error(err)
			observe(SurfaceHTTP, status, relay.KindBadRequest, start)
			c.JSON(status, ErrorResponse{Error: message})
			return
		}
	}

	resp := h.relay.Handle(c.Request.Context(), &relay.Request{
		Method:    c.Request.Method,
		Body:      body,
		RequestID: c.GetString(middleware.RequestIDKey),
	})

	for key, value := range resp.Headers() {
		c.Header(key, value)
	}
	observe(SurfaceHTTP, resp.StatusCode, resp.Kind, start)
	c.JSON(resp.StatusCode, resp)
}

// HandleRelay is the framework-agnostic entrypoint used by the Lambda function
func (h *RelayHandler) HandleRelay(ctx context.Context, req *lambda.Request) (*lambda.Response, error) {
	start := time.Now()
	metrics.InflightRequests.Inc()
	defer metrics.InflightRequests.Dec()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	resp := h.relay.Handle(ctx, &relay.Request{
		Method:    req.Method,
		Body:      req.Body,
		RequestID: requestID,
	})

	body, err := json.Marshal(resp)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to encode relay response")
		observe(SurfaceLambda, http.StatusInternalServerError, relay.KindInternalError, start)
		return lambda.JSONError(http.StatusInternalServerError, relay.ErrInternal.Error()), nil
	}

	headers := resp.Headers()
	headers[middleware.RequestIDHeader] = requestID

	observe(SurfaceLambda, resp.StatusCode, resp.Kind, start)
	return &lambda.Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       body,
	}, nil
}

// readErrorStatus maps a body read failure to a status and client message
func readErrorStatus(err error) (int, string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge, "request body too large"
	}
	return http.StatusBadRequest, "failed to read request body"
}

func observe(surface string, status int, kind relay.ErrorKind, start time.Time) {
	metrics.RequestCount.WithLabelValues(surface, strconv.Itoa(status), string(kind)).Inc()
	metrics.RequestDuration.WithLabelValues(surface).Observe(time.Since(start).Seconds())
}

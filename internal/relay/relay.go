// Package relay forwards a text prompt to a hosted inference API and
// normalizes the reply into a single JSON shape.
//
// A Relay is immutable after New and is safe for concurrent use. Every
// invocation issues at most one outbound call and never retries.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"inference-relay/internal/metrics"
)

// maxUpstreamBodyBytes caps how much of an upstream reply is read
const maxUpstreamBodyBytes = 10 * 1024 * 1024

// ErrMissingField is returned when the input field is absent or empty
var ErrMissingField = errors.New("missing input field")

// Relay validates inbound requests, calls the upstream inference API once
// and reconciles its response
type Relay struct {
	config     UpstreamConfig
	client     *http.Client
	reconciler *Reconciler
	logger     *logrus.Logger
}

// New creates a Relay. base may be nil, in which case a default client is used.
// The API key is attached to outbound requests by an oauth2 bearer transport.
func New(cfg UpstreamConfig, base *http.Client, logger *logrus.Logger) (*Relay, error) {
	if cfg.InputField == "" {
		cfg.InputField = DefaultInputField
	}
	if len(cfg.TextFields) == 0 {
		cfg.TextFields = DefaultTextFields
	}
	if cfg.FallbackMessage == "" {
		cfg.FallbackMessage = DefaultFallbackMessage
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid upstream config: %w", err)
	}

	if base == nil {
		base = &http.Client{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Relay{
		config:     cfg,
		client:     newUpstreamClient(base, cfg.APIKey),
		reconciler: NewReconciler(cfg.TextFields, cfg.FallbackMessage),
		logger:     logger,
	}, nil
}

func newUpstreamClient(base *http.Client, apiKey string) *http.Client {
	if apiKey == "" {
		return base
	}
	client := *base
	client.Transport = &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"}),
		Base:   base.Transport,
	}
	return &client
}

// Config returns a copy of the upstream configuration with the API key redacted
func (r *Relay) Config() UpstreamConfig {
	cfg := r.config
	if cfg.APIKey != "" {
		cfg.APIKey = "[redacted]"
	}
	return cfg
}

// Handle runs one invocation. It always returns a response; failures,
// including panics, are converted into error responses.
func (r *Relay) Handle(ctx context.Context, req *Request) (resp *Response) {
	if req == nil {
		req = &Request{}
	}
	start := time.Now()
	log := r.logger.WithFields(logrus.Fields{
		"request_id": req.RequestID,
		"method":     req.Method,
	})

	defer func() {
		if p := recover(); p != nil {
			log.WithFields(logrus.Fields{
				"panic":       fmt.Sprintf("%v", p),
				"stack_trace": string(debug.Stack()),
			}).Error("Relay panic recovered")
			resp = ErrorResponse(internalError(fmt.Errorf("panic: %v", p)))
		}
	}()

	text, err := r.process(ctx, req, log)
	if err != nil {
		relayErr := AsError(err)
		fields := logrus.Fields{
			"kind":        relayErr.Kind,
			"status_code": relayErr.StatusCode,
			"error":       relayErr.Error(),
			"latency_ms":  float64(time.Since(start).Nanoseconds()) / 1000000,
		}
		switch relayErr.Kind {
		case KindInternalError, KindConfigurationError:
			log.WithFields(fields).Error("Relay failed")
		case KindUpstreamError:
			log.WithFields(fields).Warn("Upstream failure")
		default:
			log.WithFields(fields).Debug("Request rejected")
		}
		return ErrorResponse(relayErr)
	}

	return Success(text)
}

func (r *Relay) process(ctx context.Context, req *Request, log *logrus.Entry) (string, error) {
	if req.Method != http.MethodPost {
		return "", methodNotAllowed()
	}

	input, err := r.parseInput(req.Body)
	if err != nil {
		return "", err
	}

	if r.config.APIKey == "" {
		return "", configurationError(ErrMissingAPIKey)
	}

	doc, err := r.callUpstream(ctx, input, log)
	if err != nil {
		return "", err
	}

	extraction := r.reconciler.Reconcile(doc)
	log.WithFields(logrus.Fields{
		"strategy": extraction.Strategy,
		"field":    extraction.Field,
	}).Debug("Upstream response reconciled")

	return stripEcho(extraction, input), nil
}

// parseInput returns the raw input text from the request body
func (r *Relay) parseInput(raw []byte) (string, error) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 {
		return "", badRequest(ErrMissingBody.Error(), ErrMissingBody)
	}
	if !gjson.ValidBytes(body) {
		return "", badRequest(ErrInvalidJSON.Error(), ErrInvalidJSON)
	}

	field := r.config.InputField
	doc := gjson.ParseBytes(body)
	value := doc.Get(gjson.Escape(field))
	if !doc.IsObject() || value.Type != gjson.String || strings.TrimSpace(value.Str) == "" {
		message := fmt.Sprintf("missing '%s' in request body (expected {\"%s\": \"<text>\"})", field, field)
		return "", badRequest(message, ErrMissingField)
	}

	return value.Str, nil
}

func (r *Relay) callUpstream(ctx context.Context, input string, log *logrus.Entry) (gjson.Result, error) {
	payload, err := json.Marshal(upstreamPayload{Inputs: input, Parameters: r.config.Parameters})
	if err != nil {
		return gjson.Result{}, internalError(fmt.Errorf("failed to encode upstream payload: %w", err))
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.config.EndpointURL, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, internalError(fmt.Errorf("failed to build upstream request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	httpResp, err := r.client.Do(httpReq)
	if err != nil {
		metrics.UpstreamDuration.WithLabelValues("transport_error").Observe(time.Since(start).Seconds())
		return gjson.Result{}, transportError(err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxUpstreamBodyBytes))
	if err != nil {
		metrics.UpstreamDuration.WithLabelValues("transport_error").Observe(time.Since(start).Seconds())
		return gjson.Result{}, transportError(err)
	}

	log.WithFields(logrus.Fields{
		"upstream_status": httpResp.StatusCode,
		"upstream_ms":     float64(time.Since(start).Nanoseconds()) / 1000000,
		"response_size":   len(rawBody),
	}).Debug("Upstream responded")

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		metrics.UpstreamDuration.WithLabelValues("status_error").Observe(time.Since(start).Seconds())
		return gjson.Result{}, statusError(httpResp.StatusCode, rawBody)
	}
	metrics.UpstreamDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	if !gjson.ValidBytes(rawBody) {
		return gjson.Result{}, upstreamError(http.StatusBadGateway, ErrMalformedOutput.Error(), nil, ErrMalformedOutput)
	}

	return gjson.ParseBytes(rawBody), nil
}

// stripEcho removes a prompt echoed at the start of generated text.
// Summaries never echo the prompt, so only generated_text is touched.
func stripEcho(extraction Extraction, input string) string {
	if extraction.Field != FieldGeneratedText {
		return extraction.Text
	}
	if strings.HasPrefix(extraction.Text, input) {
		return strings.TrimSpace(strings.TrimPrefix(extraction.Text, input))
	}
	return extraction.Text
}

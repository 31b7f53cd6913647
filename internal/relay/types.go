package relay

import (
	"encoding/json"
	"net/http"
	"time"
)

// DefaultTimeout bounds the upstream call when no timeout is configured.
// Kept under the 26s synchronous function limit of the hosting platforms.
const DefaultTimeout = 25 * time.Second

// DefaultInputField is the canonical inbound field name
const DefaultInputField = "prompt"

// Request is an inbound relay invocation
type Request struct {
	Method    string
	Body      []byte
	RequestID string // Used for log correlation only
}

// UpstreamConfig configures the call to the inference API. APIKey is
// checked per invocation, not at construction. Parameters are sent
// upstream as "parameters".
type UpstreamConfig struct {
	EndpointURL     string         `validate:"required,url"`
	APIKey          string         `validate:"-"`
	InputField      string         `validate:"required"`
	TextFields      []string       `validate:"dive,required"`
	FallbackMessage string         `validate:"-"`
	Parameters      map[string]any `validate:"-"`
	Timeout         time.Duration  `validate:"gte=0"`
}

// upstreamPayload is the body sent to the inference API
type upstreamPayload struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Response is the normalized relay output
type Response struct {
	StatusCode int
	Result     string
	Error      string
	Details    map[string]any
	Kind       ErrorKind // Empty on success
}

type resultBody struct {
	Result string `json:"result"`
}

type errorBody struct {
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// Success creates a 200 response
func Success(result string) *Response {
	return &Response{StatusCode: http.StatusOK, Result: result}
}

// ErrorResponse converts a relay Error into a response
func ErrorResponse(err *Error) *Response {
	return &Response{
		StatusCode: err.StatusCode,
		Error:      err.Message,
		Details:    err.Details,
		Kind:       err.Kind,
	}
}

// IsError returns true for failed invocations
func (r Response) IsError() bool {
	return r.Kind != ""
}

// Headers returns the headers that accompany the response body
func (r Response) Headers() map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}
	if r.Kind == KindMethodNotAllowed {
		headers["Allow"] = http.MethodPost
	}
	return headers
}

// MarshalJSON renders {"result": ...} or {"error": ..., "details": ...}
func (r Response) MarshalJSON() ([]byte, error) {
	if r.IsError() {
		return json.Marshal(errorBody{Error: r.Error, Details: r.Details})
	}
	return json.Marshal(resultBody{Result: r.Result})
}

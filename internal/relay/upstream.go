package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const bodyPreviewLimit = 280

// transportError maps a failed round trip to an UpstreamError
func transportError(err error) *Error {
	if isTimeout(err) {
		return upstreamError(http.StatusGatewayTimeout, "upstream request timed out", nil, err)
	}
	return upstreamError(http.StatusBadGateway, "upstream request failed", nil, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// statusError maps a non-2xx upstream reply to an UpstreamError.
// Details are only attached when the body is a JSON object.
func statusError(statusCode int, rawBody []byte) *Error {
	var details map[string]any
	doc := gjson.ParseBytes(rawBody)
	if gjson.ValidBytes(rawBody) && doc.IsObject() {
		details, _ = doc.Value().(map[string]any)
	}

	message := formatUpstreamError(statusCode, rawBody)
	return upstreamError(statusCode, message, details, fmt.Errorf("upstream status %d", statusCode))
}

func formatUpstreamError(statusCode int, rawBody []byte) string {
	status := fmt.Sprintf("%d", statusCode)
	if text := http.StatusText(statusCode); text != "" {
		status = fmt.Sprintf("%d %s", statusCode, text)
	}

	if msg := extractUpstreamErrorMessage(rawBody); msg != "" {
		return fmt.Sprintf("upstream returned HTTP %s: %s", status, msg)
	}

	if preview := compactBodyPreview(rawBody, bodyPreviewLimit); preview != "" {
		return fmt.Sprintf("upstream returned HTTP %s: %s", status, preview)
	}

	return fmt.Sprintf("upstream returned HTTP %s", status)
}

func extractUpstreamErrorMessage(rawBody []byte) string {
	if !gjson.ValidBytes(rawBody) {
		return ""
	}
	return errorMessageFrom(gjson.ParseBytes(rawBody))
}

func errorMessageFrom(doc gjson.Result) string {
	if !doc.IsObject() {
		return ""
	}

	for _, key := range []string{"message", "detail", "error_description", "title", "reason"} {
		if v := trimmedString(doc.Get(key)); v != "" {
			return v
		}
	}

	errField := doc.Get("error")
	if errField.IsObject() {
		if msg := errorMessageFrom(errField); msg != "" {
			return msg
		}
	}
	if v := trimmedString(errField); v != "" {
		return v
	}

	// Hugging Face validation errors arrive as {"error": ["..."]} or {"errors": [...]}
	for _, key := range []string{"error", "errors"} {
		list := doc.Get(key)
		if !list.IsArray() {
			continue
		}
		for _, item := range list.Array() {
			if msg := errorMessageFrom(item); msg != "" {
				return msg
			}
			if v := trimmedString(item); v != "" {
				return v
			}
		}
	}

	return ""
}

func trimmedString(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.Str)
}

func compactBodyPreview(rawBody []byte, maxLen int) string {
	trimmed := strings.TrimSpace(string(rawBody))
	if trimmed == "" {
		return ""
	}

	clean := strings.Join(strings.Fields(trimmed), " ")
	if len(clean) <= maxLen {
		return clean
	}
	return clean[:maxLen] + "..."
}

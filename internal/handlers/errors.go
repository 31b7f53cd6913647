package handlers

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string         `json:"error" example:"missing 'prompt' in request body (expected {\"prompt\": \"<text>\"})"`
	Details map[string]any `json:"details,omitempty"`
}

// RelayRequest documents the inbound payload. The field name is configurable.
type RelayRequest struct {
	Prompt string `json:"prompt" example:"Summarize the plot of Hamlet in two sentences."`
}

// RelayResult is the success body
type RelayResult struct {
	Result string `json:"result" example:"Prince Hamlet seeks revenge on his uncle..."`
}

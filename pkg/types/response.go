package types

// Payload carries the top-level fields merged into a response envelope.
type Payload map[string]any

// ErrorEnvelope is the body written for every failed request.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

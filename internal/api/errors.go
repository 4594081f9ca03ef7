package api

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	// Error carries the human-readable message.
	Error string `json:"error"`
	// Code is a stable machine-readable category, e.g. "invalid_argument".
	Code string `json:"code,omitempty"`
	// ErrorCode is a stable numeric identifier for the specific failure.
	ErrorCode int `json:"error_code,omitempty"`
}

package models

// API Error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// ErrorResponse wraps APIError. Detail repeats the message at the top level for
// clients that only read a flat "detail" string.
type ErrorResponse struct {
	Error  APIError `json:"error"`
	Detail string   `json:"detail"`
}

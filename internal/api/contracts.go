package api

import "time"

// ErrorResponse is the standardized error body every non-2xx response
// returns (spec.md §4.11's failure semantics summary extended to reads).
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type contextKey string

const requestIDKey contextKey = "request_id"

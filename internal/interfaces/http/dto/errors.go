package dto

import "net/http"

// Error codes generated by the HTTP layer itself. Domain error codes pass
// through unchanged so clients can react to specific business rules.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeRateLimited is used when the rate limit is exceeded
	ErrCodeRateLimited = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
	ErrCodeRateLimited: http.StatusTooManyRequests,

	// Malformed input -> 400 Bad Request
	"INVALID_INPUT":          http.StatusBadRequest,
	"INVALID_QUANTITY":       http.StatusBadRequest,
	"INVALID_TITLE":          http.StatusBadRequest,
	"INVALID_PRICE":          http.StatusBadRequest,
	"INVALID_TOTAL_TICKETS":  http.StatusBadRequest,
	"INVALID_CUSTOMER_LIMIT": http.StatusBadRequest,
	"INVALID_SCHEDULE":       http.StatusBadRequest,
	"INVALID_REASON":         http.StatusBadRequest,
	"INVALID_CUSTOMER":       http.StatusBadRequest,
	"INVALID_RANDOMNESS":     http.StatusBadRequest,
	"INVALID_REQUEST_ID":     http.StatusBadRequest,
	"INVALID_ACTOR":          http.StatusBadRequest,

	// Missing resources -> 404 Not Found
	"NOT_FOUND":       http.StatusNotFound,
	"UNKNOWN_REQUEST": http.StatusNotFound,

	// Concurrent modification -> 409 Conflict
	"CONCURRENCY_CONFLICT":     http.StatusConflict,
	"DRAW_ALREADY_IN_PROGRESS": http.StatusConflict,
	"DRAW_IN_PROGRESS":         http.StatusConflict,

	// Business rule violations -> 422 Unprocessable Entity
	"INVALID_STATE":               http.StatusUnprocessableEntity,
	"ALREADY_FINAL":               http.StatusUnprocessableEntity,
	"IMMUTABLE_FIELD_VIOLATION":   http.StatusUnprocessableEntity,
	"EMPTY_RAFFLE":                http.StatusUnprocessableEntity,
	"SOLD_OUT":                    http.StatusUnprocessableEntity,
	"CAPACITY_EXCEEDED":           http.StatusUnprocessableEntity,
	"PER_CUSTOMER_LIMIT_EXCEEDED": http.StatusUnprocessableEntity,
	"INVALID_WINNER":              http.StatusUnprocessableEntity,
	"INVALID_RAFFLE":              http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

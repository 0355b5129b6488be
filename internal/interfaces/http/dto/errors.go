package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required header or field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeDuplicateRequest is used when an idempotency key was already consumed
	ErrCodeDuplicateRequest = "ERR_DUPLICATE_REQUEST"
)

// Lifecycle error codes
const (
	// ErrCodeInvalidTransition is used when an action is not allowed from the order's status
	ErrCodeInvalidTransition = "ERR_INVALID_TRANSITION"
	// ErrCodeInvalidQuantity is used when a received or returned quantity is out of bounds
	ErrCodeInvalidQuantity = "ERR_INVALID_QUANTITY"
	// ErrCodeSerialCountMismatch is used when serial numbers do not match the declared quantity
	ErrCodeSerialCountMismatch = "ERR_SERIAL_COUNT_MISMATCH"
	// ErrCodePaymentRequired is used when receiving is attempted before full payment
	ErrCodePaymentRequired = "ERR_PAYMENT_REQUIRED"
	// ErrCodeServiceUnreachable is used when the order store failed or timed out
	ErrCodeServiceUnreachable = "ERR_SERVICE_UNREACHABLE"
	ErrCodeInvalidState       = "ERR_INVALID_STATE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Access errors
const (
	// ErrCodeUnauthorized is used when no actor could be identified
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeInvalidToken = "ERR_INVALID_TOKEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	// ErrCodeRateLimited is used when an actor sent too many mutating requests
	ErrCodeRateLimited = "ERR_RATE_LIMIT_EXCEEDED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDuplicateRequest:    http.StatusConflict,

	// Lifecycle rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidTransition:   http.StatusUnprocessableEntity,
	ErrCodeInvalidQuantity:     http.StatusUnprocessableEntity,
	ErrCodeSerialCountMismatch: http.StatusUnprocessableEntity,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodePaymentRequired:     http.StatusPaymentRequired,
	ErrCodeServiceUnreachable:  http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Access errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeInvalidToken: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the ERR_ codes above.
// It covers both shared.DomainError codes and purchasing.ErrorKind values.
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"DUPLICATE_REQUEST":     ErrCodeDuplicateRequest,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
	"INVALID_TRANSITION":    ErrCodeInvalidTransition,
	"INVALID_QUANTITY":      ErrCodeInvalidQuantity,
	"SERIAL_COUNT_MISMATCH": ErrCodeSerialCountMismatch,
	"PAYMENT_REQUIRED":      ErrCodePaymentRequired,
	"SERVICE_UNREACHABLE":   ErrCodeServiceUnreachable,
	"CONFLICT":              ErrCodeConflict,
	"UNAUTHORIZED":          ErrCodeUnauthorized,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

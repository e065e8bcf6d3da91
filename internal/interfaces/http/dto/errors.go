package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeInvalidState     = "INVALID_STATE"
	ErrCodeAlreadyFinalized = "ALREADY_FINALIZED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeValidation:       http.StatusUnprocessableEntity,
	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeAlreadyFinalized: http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Codes outside the table come from domain rule violations (SUPPLIER_INACTIVE,
// NO_ITEMS, DUPLICATE_ALLOCATION, ...) and map to 422 Unprocessable Entity.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}

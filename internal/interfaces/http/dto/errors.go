package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeLocked is used when an order is held by another processor
	ErrCodeLocked = "ERR_LOCKED"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeNotEligible is used when an order fails the shippability checks
	ErrCodeNotEligible = "ERR_NOT_ELIGIBLE"
	// ErrCodeActiveShipment is used when a purchase hits an existing active label
	ErrCodeActiveShipment = "ERR_ACTIVE_SHIPMENT"
	// ErrCodeNoQuote is used when no usable carrier quote exists for an order
	ErrCodeNoQuote = "ERR_NO_QUOTE"
	// ErrCodeQuoteMismatch is used when a quote does not belong to the order
	ErrCodeQuoteMismatch = "ERR_QUOTE_MISMATCH"
	// ErrCodeVoidDeclined is used when the carrier refuses to void a label
	ErrCodeVoidDeclined = "ERR_VOID_DECLINED"
	// ErrCodeBatchNotTerminal is used when recovery targets a live batch
	ErrCodeBatchNotTerminal = "ERR_BATCH_NOT_TERMINAL"
	// ErrCodeInconsistentState is used when stored state violates an engine invariant
	ErrCodeInconsistentState = "ERR_INCONSISTENT_STATE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Upstream error codes
const (
	// ErrCodeCarrierUnavailable is used when the carrier gateway fails transiently
	ErrCodeCarrierUnavailable = "ERR_CARRIER_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
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
	ErrCodeLocked:              http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodeNotEligible:        http.StatusUnprocessableEntity,
	ErrCodeNoQuote:            http.StatusUnprocessableEntity,
	ErrCodeQuoteMismatch:      http.StatusUnprocessableEntity,
	ErrCodeVoidDeclined:       http.StatusUnprocessableEntity,
	ErrCodeBatchNotTerminal:   http.StatusUnprocessableEntity,
	ErrCodeInconsistentState:  http.StatusUnprocessableEntity,
	ErrCodeActiveShipment:     http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Upstream errors -> 502 Bad Gateway
	ErrCodeCarrierUnavailable: http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to standardized API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"BATCH_NOT_FOUND":        ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_STATE":          ErrCodeInvalidState,
	"INVALID_MARKETPLACE":    ErrCodeInvalidInput,
	"INVALID_ORDER_NUMBER":   ErrCodeInvalidInput,
	"INVALID_CANCEL_STATUS":  ErrCodeInvalidInput,
	"INVALID_ACTOR":          ErrCodeInvalidInput,
	"INVALID_ADDRESS":        ErrCodeInvalidInput,
	"INVALID_ITEM_TITLE":     ErrCodeInvalidInput,
	"INVALID_QUANTITY":       ErrCodeInvalidInput,
	"INVALID_DIMENSIONS":     ErrCodeInvalidInput,
	"INVALID_QUOTE":          ErrCodeInvalidInput,
	"EMPTY_BATCH":            ErrCodeInvalidInput,
	"INVALID_BATCH_KIND":     ErrCodeInvalidInput,
	"INVALID_MERGE":          ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"ALREADY_LOCKED":         ErrCodeLocked,
	"NOT_LOCKED":             ErrCodeInvalidState,
	"NOT_ELIGIBLE":           ErrCodeNotEligible,
	"ACTIVE_SHIPMENT_EXISTS": ErrCodeActiveShipment,
	"NO_QUOTE":               ErrCodeNoQuote,
	"QUOTE_MISMATCH":         ErrCodeQuoteMismatch,
	"VOID_DECLINED":          ErrCodeVoidDeclined,
	"ALREADY_VOIDED":         ErrCodeInvalidState,
	"BATCH_NOT_TERMINAL":     ErrCodeBatchNotTerminal,
	"INCONSISTENT_STATE":     ErrCodeInconsistentState,
	"CARRIER_UNAVAILABLE":    ErrCodeCarrierUnavailable,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

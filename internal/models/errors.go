package models

// APIError represents a standardized error response format for the API.
type APIError struct {
	Code    string      `json:"code"`              // Application-specific error code (e.g., "PARSE_ERROR")
	Message string      `json:"message"`           // Human-readable message describing the error
	Details interface{} `json:"details,omitempty"` // Optional additional error details
}

// Predefined application-specific error codes
const (
	ErrorCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorCodeValidation          = "VALIDATION_ERROR" // Malformed or incomplete request payload
	ErrorCodeInvalidJSON         = "INVALID_JSON"     // Body is not valid JSON
	ErrorCodeParse               = "PARSE_ERROR"      // Malformed timestamp or field inside a sample
)

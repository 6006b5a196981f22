package response

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error codes exposed to clients. Payloads never include
// stack traces, file paths, or store-engine details.
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeWeakPassword        = "WEAK_PASSWORD"
	CodeUserExists          = "USER_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInvalidAuth         = "INVALID_AUTH"
	CodeNoAuthHeader        = "NO_AUTH_HEADER"
	CodeRefreshError        = "REFRESH_ERROR"
	CodeInvalidResetToken   = "INVALID_RESET_TOKEN"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeNotFound            = "NOT_FOUND"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// ErrorBody is the standard error envelope
type ErrorBody struct {
	Success bool        `json:"success"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Extra   interface{} `json:"rate_limit,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Log error but don't try to write again
			return
		}
	}
}

// Error writes an error response with a stable code and message
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{
		Success: false,
		Code:    code,
		Message: message,
	})
}

// ErrorWithDetail writes an error response carrying a rate_limit detail object
func ErrorWithDetail(w http.ResponseWriter, status int, code, message string, detail interface{}) {
	JSON(w, status, ErrorBody{
		Success: false,
		Code:    code,
		Message: message,
		Extra:   detail,
	})
}

// InternalError writes a 500 internal server error response
func InternalError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "An unexpected error occurred"
	}
	Error(w, http.StatusInternalServerError, CodeInternalError, message)
}

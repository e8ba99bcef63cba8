package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError represents a standardized API error response.
// It includes an HTTP status code and a user-facing message.
type APIError struct {
	Code    int    `json:"-"`                 // HTTP status code
	Message string `json:"error"`             // User-facing error message
	Details string `json:"details,omitempty"` // Optional additional details
}

// Error implements the error interface.
func (e APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e APIError) StatusCode() int {
	if e.Code == 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// WithDetails returns a copy of the error with additional details.
func (e APIError) WithDetails(details string) APIError {
	return APIError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// Common API errors - use these for consistent error responses
var (
	ErrBadRequest = APIError{
		Code:    http.StatusBadRequest,
		Message: "Bad request",
	}
	ErrInvalidReference = APIError{
		Code:    http.StatusBadRequest,
		Message: "Invalid repository reference",
	}
	ErrRepositoryNotFound = APIError{
		Code:    http.StatusNotFound,
		Message: "Repository not found",
	}
	ErrDatabaseFetch = APIError{
		Code:    http.StatusInternalServerError,
		Message: "Failed to retrieve data",
	}
	ErrInternal = APIError{
		Code:    http.StatusInternalServerError,
		Message: "An internal error occurred",
	}
)

// WriteError writes an APIError to the response writer.
func WriteError(w http.ResponseWriter, err APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode())
	_ = json.NewEncoder(w).Encode(err)
}

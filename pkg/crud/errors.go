package crud

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Static errors for err113 compliance.
var (
	ErrInvalidMethod             = errors.New("invalid endpoint method")
	ErrEmptyRoute                = errors.New("endpoint route is required")
	ErrEmptyName                 = errors.New("name is required")
	ErrResourceNotFound          = errors.New("resource not found")
	ErrEndpointNotFound          = errors.New("endpoint not found")
	ErrResourceAlreadyRegistered = errors.New("resource already registered")
	ErrNoDoer                    = errors.New("no transport configured")
	ErrConfigRequired            = errors.New("config is required")
	ErrAPIEndpointRequired       = errors.New("API endpoint is required")
	ErrInvalidPage               = errors.New("invalid paginated response")
	ErrNoResponse                = errors.New("transport returned no response")
)

// ResponseError is returned when the server answers with a status >= 400.
type ResponseError struct {
	StatusCode int    `json:"status_code"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	Message    string `json:"message,omitempty"`
	Body       []byte `json:"-"`
}

// Error implements the error interface.
func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	return fmt.Sprintf("%s %s: %s (status: %d)", e.Method, e.URL, msg, e.StatusCode)
}

// NewResponseError builds a ResponseError, lifting a message out of common
// JSON error bodies ({"message": ...} or {"error": ...}).
func NewResponseError(method, url string, statusCode int, body []byte) *ResponseError {
	respErr := &ResponseError{
		StatusCode: statusCode,
		Method:     method,
		URL:        url,
		Body:       body,
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}

	if json.Unmarshal(body, &payload) == nil {
		respErr.Message = payload.Message
		if respErr.Message == "" {
			respErr.Message = payload.Error
		}
	}

	return respErr
}

func hasStatus(err error, code int) bool {
	respErr := &ResponseError{}
	if errors.As(err, &respErr) {
		return respErr.StatusCode == code
	}

	return false
}

// IsNotFound checks if the error is a 404 response.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

// IsUnauthorized checks if the error is a 401 response.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsForbidden checks if the error is a 403 response.
func IsForbidden(err error) bool {
	return hasStatus(err, http.StatusForbidden)
}

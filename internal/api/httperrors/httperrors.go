package httperrors

import (
	"fmt"
	"net/http"
)

const (
	// HTTPErrorTypeGeneric marks errors without a more specific type.
	HTTPErrorTypeGeneric = "generic"
)

// HTTPError is the public error payload returned by the API.
type HTTPError struct {
	Code   int    `json:"status"`
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTPError %d (%s): %s - %s", e.Code, e.Type, e.Title, e.Detail)
	}

	return fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
}

// NewHTTPError creates a public HTTP error with the given status, type and
// title.
func NewHTTPError(code int, errorType string, title string) *HTTPError {
	return &HTTPError{
		Code:  code,
		Type:  errorType,
		Title: title,
	}
}

// NewHTTPErrorWithDetail creates a public HTTP error carrying an additional
// human-readable detail string.
func NewHTTPErrorWithDetail(code int, errorType string, title string, detail string) *HTTPError {
	return &HTTPError{
		Code:   code,
		Type:   errorType,
		Title:  title,
		Detail: detail,
	}
}

var (
	ErrNotFound     = NewHTTPError(http.StatusNotFound, HTTPErrorTypeGeneric, "Not found")
	ErrUnauthorized = NewHTTPError(http.StatusUnauthorized, HTTPErrorTypeGeneric, "Unauthorized")
)

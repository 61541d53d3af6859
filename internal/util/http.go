package util

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github/chapool/go-relay/internal/api/httperrors"
)

// Validatable payloads perform their own semantic validation after binding.
type Validatable interface {
	Validate() error
}

// BindAndValidateBody binds the request body to v and runs its validation if
// it implements Validatable. Errors are returned as public HTTP validation
// errors.
func BindAndValidateBody(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return httperrors.NewHTTPErrorWithDetail(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "Invalid request body", err.Error())
	}

	if validatable, ok := v.(Validatable); ok {
		if err := validatable.Validate(); err != nil {
			return httperrors.NewHTTPErrorWithDetail(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "Invalid request body", err.Error())
		}
	}

	return nil
}

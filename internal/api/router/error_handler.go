package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-relay/internal/api/httperrors"
	"github/chapool/go-relay/internal/relay"
	"github/chapool/go-relay/internal/relay/ledger"
	"github/chapool/go-relay/internal/util"
)

type HTTPErrorHandlerConfig struct {
	HideInternalServerErrorDetails bool
}

// HTTPErrorHandlerWithConfig maps domain errors onto public HTTP error
// payloads. Relay errors keep their descriptive message; unexpected errors
// are hidden behind a generic 500 if configured.
func HTTPErrorHandlerWithConfig(config HTTPErrorHandlerConfig) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		httpErr := toHTTPError(err, config)

		if sendErr := c.JSON(httpErr.Code, httpErr); sendErr != nil {
			util.LogFromEchoContext(c).Error().Err(sendErr).Msg("Failed to send error response")
		}
	}
}

func toHTTPError(err error, config HTTPErrorHandlerConfig) *httperrors.HTTPError {
	var httpErr *httperrors.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		title, ok := echoErr.Message.(string)
		if !ok {
			title = http.StatusText(echoErr.Code)
		}

		return httperrors.NewHTTPError(echoErr.Code, httperrors.HTTPErrorTypeGeneric, title)
	}

	var validationErr *relay.ValidationError
	if errors.As(err, &validationErr) {
		return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, validationErr.Error())
	}

	var fundsErr *relay.InsufficientFundsError
	if errors.As(err, &fundsErr) {
		return httperrors.NewHTTPError(http.StatusPaymentRequired, httperrors.HTTPErrorTypeGeneric, fundsErr.Error())
	}

	var notFoundErr *relay.NotFoundError
	if errors.As(err, &notFoundErr) {
		return httperrors.NewHTTPError(http.StatusNotFound, httperrors.HTTPErrorTypeGeneric, notFoundErr.Error())
	}

	var oracleErr *relay.OracleError
	if errors.As(err, &oracleErr) {
		return httperrors.NewHTTPError(http.StatusBadGateway, httperrors.HTTPErrorTypeGeneric, oracleErr.Error())
	}

	var signerErr *relay.SignerError
	if errors.As(err, &signerErr) {
		return httperrors.NewHTTPError(http.StatusBadGateway, httperrors.HTTPErrorTypeGeneric, signerErr.Error())
	}

	if errors.Is(err, relay.ErrNoPendingRequests) {
		return httperrors.NewHTTPError(http.StatusConflict, httperrors.HTTPErrorTypeGeneric, relay.ErrNoPendingRequests.Error())
	}

	if errors.Is(err, ledger.ErrInsufficientBalance) {
		return httperrors.NewHTTPError(http.StatusPaymentRequired, httperrors.HTTPErrorTypeGeneric, err.Error())
	}

	if config.HideInternalServerErrorDetails {
		return httperrors.NewHTTPError(http.StatusInternalServerError, httperrors.HTTPErrorTypeGeneric, http.StatusText(http.StatusInternalServerError))
	}

	return httperrors.NewHTTPError(http.StatusInternalServerError, httperrors.HTTPErrorTypeGeneric, err.Error())
}

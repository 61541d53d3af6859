package util

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// LogFromContext returns the request-scoped logger if one exists, the global
// logger otherwise.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// LogFromEchoContext returns the request-scoped logger of the echo request.
func LogFromEchoContext(c echo.Context) *zerolog.Logger {
	return LogFromContext(c.Request().Context())
}

package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-relay/internal/api"
)

// readinessFailedStatus is intentionally outside the standard status range
// so load balancers treat it as an origin error.
const readinessFailedStatus = 521

// GetReadyRoute is the readiness probe: all server components are
// initialized.
func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(readinessFailedStatus, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}

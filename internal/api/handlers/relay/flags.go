package relay

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/relay"
	"github/chapool/go-relay/internal/util"
)

// PutFlagsPayload replaces both whitelist flags; omitted flags default to
// disabled.
type PutFlagsPayload struct {
	IsSenderWhitelistEnabled   *bool `json:"isSenderWhitelistEnabled,omitempty"`
	IsReceiverWhitelistEnabled *bool `json:"isReceiverWhitelistEnabled,omitempty"`
}

func GetFlagsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.GET("/flags", getFlagsHandler(s))
}

func getFlagsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, s.Relay.GetFlags(c.Request().Context()))
	}
}

func PutFlagsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1RelayAdmin.PUT("/flags", putFlagsHandler(s))
}

func putFlagsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body PutFlagsPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		flags := relay.Flags{
			IsSenderWhitelistEnabled:   util.FalseIfNil(body.IsSenderWhitelistEnabled),
			IsReceiverWhitelistEnabled: util.FalseIfNil(body.IsReceiverWhitelistEnabled),
		}

		s.Relay.SetFlags(ctx, flags)

		return c.JSON(http.StatusOK, flags)
	}
}

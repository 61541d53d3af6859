package relay

import (
	"net/http"
	"strconv"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/api/httperrors"
	"github/chapool/go-relay/internal/util"
)

// SignNextResponse carries one hex-encoded, broadcast-ready signed
// transaction.
type SignNextResponse struct {
	SignedTransaction *string `json:"signedTransaction"`
}

func PostSignNextRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.POST("/transactions/:id/sign-next", postSignNextHandler(s))
}

func postSignNextHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "Invalid transaction id")
		}

		signedHex, err := s.Relay.SignNext(ctx, id)
		if err != nil {
			util.LogFromContext(ctx).Debug().Err(err).Uint64("id", id).Msg("Failed to sign next request")
			return err
		}

		return c.JSON(http.StatusOK, &SignNextResponse{
			SignedTransaction: swag.String(signedHex),
		})
	}
}

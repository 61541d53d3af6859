package relay

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/api/httperrors"
	"github/chapool/go-relay/internal/util"
)

// PostRecoverRequestRoute resets a sub-request stuck in flight after a
// failed signer call. Management-gated: the operator must first make sure
// the outstanding signer call cannot still deliver a signature.
func PostRecoverRequestRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1RelayAdmin.POST("/transactions/:id/requests/:index/recover", postRecoverRequestHandler(s))
}

func postRecoverRequestHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "Invalid transaction id")
		}

		index, err := strconv.Atoi(c.Param("index"))
		if err != nil || index < 0 {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "Invalid request index")
		}

		if err := s.Relay.RecoverRequest(ctx, id, index); err != nil {
			util.LogFromContext(ctx).Debug().Err(err).Uint64("id", id).Int("index", index).Msg("Failed to recover signature request")
			return err
		}

		return c.NoContent(http.StatusNoContent)
	}
}

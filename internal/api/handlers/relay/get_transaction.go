package relay

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/api/httperrors"
	"github/chapool/go-relay/internal/relay"
	"github/chapool/go-relay/internal/util"
)

// GetTransactionResponse is the current state of a signing batch.
type GetTransactionResponse struct {
	ID       uint64                       `json:"id"`
	Requests []relay.SignatureRequestView `json:"requests"`
}

func GetTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.GET("/transactions/:id", getTransactionHandler(s))
}

func getTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "Invalid transaction id")
		}

		requests, err := s.Relay.GetBatch(ctx, id)
		if err != nil {
			util.LogFromContext(ctx).Debug().Err(err).Uint64("id", id).Msg("Failed to get transaction batch")
			return err
		}

		return c.JSON(http.StatusOK, &GetTransactionResponse{
			ID:       id,
			Requests: requests,
		})
	}
}

package relay

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/api/httperrors"
	"github/chapool/go-relay/internal/relay"
	"github/chapool/go-relay/internal/util"
)

// WhitelistPayload lists foreign-chain addresses to add or remove. For
// DELETE, All clears the whole whitelist instead.
type WhitelistPayload struct {
	Addresses []string `json:"addresses,omitempty"`
	All       *bool    `json:"all,omitempty"`
}

func (p *WhitelistPayload) Validate() error {
	for _, address := range p.Addresses {
		if !common.IsHexAddress(address) {
			return errors.Errorf("invalid address %q", address)
		}
	}

	return nil
}

// GetWhitelistResponse lists the current members of one whitelist.
type GetWhitelistResponse struct {
	Kind      string   `json:"kind"`
	Addresses []string `json:"addresses"`
}

func GetWhitelistRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.GET("/whitelists/:kind", getWhitelistHandler(s))
}

func getWhitelistHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		kind, err := whitelistKind(c)
		if err != nil {
			return err
		}

		members, err := s.Relay.GetWhitelist(ctx, kind)
		if err != nil {
			return err
		}

		addresses := make([]string, 0, len(members))
		for _, member := range members {
			addresses = append(addresses, member.Hex())
		}

		return c.JSON(http.StatusOK, &GetWhitelistResponse{
			Kind:      string(kind),
			Addresses: addresses,
		})
	}
}

func PostWhitelistRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1RelayAdmin.POST("/whitelists/:kind", postWhitelistHandler(s))
}

func postWhitelistHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		kind, err := whitelistKind(c)
		if err != nil {
			return err
		}

		var body WhitelistPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		if err := s.Relay.AddToWhitelist(ctx, kind, parseAddresses(body.Addresses)); err != nil {
			return err
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func DeleteWhitelistRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1RelayAdmin.DELETE("/whitelists/:kind", deleteWhitelistHandler(s))
}

func deleteWhitelistHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		kind, err := whitelistKind(c)
		if err != nil {
			return err
		}

		var body WhitelistPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		if util.FalseIfNil(body.All) {
			if err := s.Relay.ClearWhitelist(ctx, kind); err != nil {
				return err
			}

			return c.NoContent(http.StatusNoContent)
		}

		if err := s.Relay.RemoveFromWhitelist(ctx, kind, parseAddresses(body.Addresses)); err != nil {
			return err
		}

		return c.NoContent(http.StatusNoContent)
	}
}

func whitelistKind(c echo.Context) (relay.WhitelistKind, error) {
	kind := relay.WhitelistKind(c.Param("kind"))
	if kind != relay.WhitelistSender && kind != relay.WhitelistReceiver {
		return "", httperrors.NewHTTPError(http.StatusBadRequest, httperrors.HTTPErrorTypeGeneric, "Unknown whitelist kind")
	}

	return kind, nil
}

func parseAddresses(raw []string) []common.Address {
	addresses := make([]common.Address, 0, len(raw))
	for _, address := range raw {
		addresses = append(addresses, common.HexToAddress(address))
	}

	return addresses
}

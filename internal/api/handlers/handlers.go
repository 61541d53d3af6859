package handlers

import (
	"github.com/labstack/echo/v4"
	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/api/handlers/common"
	"github/chapool/go-relay/internal/api/handlers/relay"
)

// AttachAllRoutes attaches all registered routes to the server router.
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		// common
		common.GetHealthyRoute(s),
		common.GetReadyRoute(s),

		// relay
		relay.PostInitiateTransactionRoute(s),
		relay.PostSignNextRoute(s),
		relay.GetTransactionRoute(s),
		relay.PostRecoverRequestRoute(s),
		relay.GetFlagsRoute(s),
		relay.PutFlagsRoute(s),
		relay.GetWhitelistRoute(s),
		relay.PostWhitelistRoute(s),
		relay.DeleteWhitelistRoute(s),
		relay.PostAccountDepositRoute(s),
		relay.GetAccountBalanceRoute(s),
	}
}

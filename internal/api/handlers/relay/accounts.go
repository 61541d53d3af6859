package relay

import (
	"math/big"
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/auth"
	"github/chapool/go-relay/internal/util"
)

// PostAccountDepositPayload credits the caller's local-asset account. In a
// production deployment the credit would be driven by an external settlement
// feed; the endpoint is the ledger's on-ramp.
type PostAccountDepositPayload struct {
	Amount *string `json:"amount"`
}

func (p *PostAccountDepositPayload) Validate() error {
	if p.Amount == nil {
		return errors.New("amount is required")
	}

	amount, ok := new(big.Int).SetString(*p.Amount, 10)
	if !ok {
		return errors.New("amount must be a decimal integer string")
	}

	if amount.Sign() <= 0 {
		return errors.New("amount must be positive")
	}

	return nil
}

// AccountBalanceResponse is the caller's current local-asset balance.
type AccountBalanceResponse struct {
	Account *string `json:"account"`
	Balance *string `json:"balance"`
}

func PostAccountDepositRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.POST("/accounts/deposit", postAccountDepositHandler(s))
}

func postAccountDepositHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		caller := auth.AccountFromContext(ctx)
		if caller == "" {
			return echo.ErrUnauthorized
		}

		var body PostAccountDepositPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		amount, _ := new(big.Int).SetString(*body.Amount, 10)

		balance, err := s.Ledger.Credit(ctx, caller, amount)
		if err != nil {
			util.LogFromContext(ctx).Debug().Err(err).Str("account", caller).Msg("Failed to credit account")
			return err
		}

		return c.JSON(http.StatusOK, &AccountBalanceResponse{
			Account: swag.String(caller),
			Balance: swag.String(balance.String()),
		})
	}
}

func GetAccountBalanceRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.GET("/accounts/balance", getAccountBalanceHandler(s))
}

func getAccountBalanceHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		caller := auth.AccountFromContext(ctx)
		if caller == "" {
			return echo.ErrUnauthorized
		}

		balance := s.Ledger.Balance(ctx, caller)

		return c.JSON(http.StatusOK, &AccountBalanceResponse{
			Account: swag.String(caller),
			Balance: swag.String(balance.String()),
		})
	}
}

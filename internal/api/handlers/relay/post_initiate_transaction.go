package relay

import (
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/auth"
	"github/chapool/go-relay/internal/relay"
	"github/chapool/go-relay/internal/relay/evm"
	"github/chapool/go-relay/internal/util"
)

// PostInitiateTransactionPayload carries the transaction in exactly one of
// its two representations plus the attached deposit (decimal string in the
// local asset's smallest unit).
type PostInitiateTransactionPayload struct {
	TransactionJSON *evm.Transaction `json:"transactionJson,omitempty"`
	TransactionRLP  *string          `json:"transactionRlp,omitempty"`
	Deposit         *string          `json:"deposit"`
}

func (p *PostInitiateTransactionPayload) Validate() error {
	if p.Deposit == nil {
		return errors.New("deposit is required")
	}

	if _, ok := new(big.Int).SetString(*p.Deposit, 10); !ok {
		return errors.New("deposit must be a decimal integer string")
	}

	return nil
}

func PostInitiateTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Relay.POST("/transactions", postInitiateTransactionHandler(s))
}

func postInitiateTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		caller := auth.AccountFromContext(ctx)
		if caller == "" {
			return echo.ErrUnauthorized
		}

		var body PostInitiateTransactionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		deposit, _ := new(big.Int).SetString(*body.Deposit, 10)

		initiation, err := s.Relay.InitiateTransaction(ctx, caller, relay.InitiateTransactionParams{
			TransactionJSON: body.TransactionJSON,
			TransactionRLP:  body.TransactionRLP,
			Deposit:         deposit,
		})
		if err != nil {
			util.LogFromContext(ctx).Debug().Err(err).Msg("Failed to initiate transaction")
			return err
		}

		return c.JSON(http.StatusCreated, initiation)
	}
}

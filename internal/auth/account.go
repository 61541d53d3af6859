package auth

import (
	"context"

	"github.com/labstack/echo/v4"
)

// HeaderAccountID carries the caller identity. Deposits are debited from and
// refunds credited to this account, and it doubles as the key path of the
// caller's signing sub-request.
const HeaderAccountID = "X-Account-ID"

type contextKey int

const accountContextKey contextKey = iota

// AccountFromContext returns the caller account id, or "" when the request
// carried none.
func AccountFromContext(ctx context.Context) string {
	account, _ := ctx.Value(accountContextKey).(string)

	return account
}

// WithAccount returns a context carrying the caller account id.
func WithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

// Middleware extracts the caller identity header and installs it into the
// request context.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account := c.Request().Header.Get(HeaderAccountID)
			if account != "" {
				ctx := WithAccount(c.Request().Context(), account)
				c.SetRequest(c.Request().WithContext(ctx))
			}

			return next(c)
		}
	}
}

package ledger

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
)

// All amounts are denominated in the smallest unit of the local asset and
// are always non-negative.

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
)

// Service keeps local-asset account balances and moves value between them.
// Deposits attached to relay calls and refunds issued by the orchestrator
// all flow through this service.
type Service interface {
	// Credit adds amount to the account balance and returns the new balance.
	Credit(ctx context.Context, account string, amount *big.Int) (*big.Int, error)

	// Transfer moves amount from one account to another.
	Transfer(ctx context.Context, from string, to string, amount *big.Int) error

	// Balance returns the current balance of the account (zero for unknown
	// accounts).
	Balance(ctx context.Context, account string) *big.Int
}

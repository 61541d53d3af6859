package ledger

import (
	"context"
	"math/big"
	"sync"

	"github.com/pkg/errors"
)

type service struct {
	mu       sync.Mutex
	balances map[string]*big.Int
}

// NewService creates an in-memory ledger.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService() Service {
	return &service{
		balances: make(map[string]*big.Int),
	}
}

func (s *service) Credit(_ context.Context, account string, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	balance := s.balance(account)
	balance.Add(balance, amount)
	s.balances[account] = balance

	return new(big.Int).Set(balance), nil
}

func (s *service) Transfer(_ context.Context, from string, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fromBalance := s.balance(from)
	if fromBalance.Cmp(amount) < 0 {
		return errors.Wrapf(ErrInsufficientBalance, "account %s", from)
	}

	toBalance := s.balance(to)

	fromBalance.Sub(fromBalance, amount)
	toBalance.Add(toBalance, amount)
	s.balances[from] = fromBalance
	s.balances[to] = toBalance

	return nil
}

func (s *service) Balance(_ context.Context, account string) *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return new(big.Int).Set(s.balance(account))
}

// balance returns the mutable balance entry, caller must hold s.mu.
func (s *service) balance(account string) *big.Int {
	if b, ok := s.balances[account]; ok {
		return b
	}

	return new(big.Int)
}

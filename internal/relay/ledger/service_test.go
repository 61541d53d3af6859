package ledger_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-relay/internal/relay/ledger"
)

func TestCreditAndBalance(t *testing.T) {
	ctx := context.Background()
	svc := ledger.NewService()

	assert.Equal(t, big.NewInt(0), svc.Balance(ctx, "alice.test"))

	balance, err := svc.Credit(ctx, "alice.test", big.NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(10), balance)

	balance, err = svc.Credit(ctx, "alice.test", big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(15), balance)

	assert.Equal(t, big.NewInt(15), svc.Balance(ctx, "alice.test"))
}

func TestCreditRejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	svc := ledger.NewService()

	_, err := svc.Credit(ctx, "alice.test", nil)
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.Credit(ctx, "alice.test", big.NewInt(0))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	_, err = svc.Credit(ctx, "alice.test", big.NewInt(-1))
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	svc := ledger.NewService()

	_, err := svc.Credit(ctx, "alice.test", big.NewInt(10))
	require.NoError(t, err)

	require.NoError(t, svc.Transfer(ctx, "alice.test", "relay.test", big.NewInt(4)))

	assert.Equal(t, big.NewInt(6), svc.Balance(ctx, "alice.test"))
	assert.Equal(t, big.NewInt(4), svc.Balance(ctx, "relay.test"))
}

func TestTransferInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	svc := ledger.NewService()

	_, err := svc.Credit(ctx, "alice.test", big.NewInt(3))
	require.NoError(t, err)

	err = svc.Transfer(ctx, "alice.test", "relay.test", big.NewInt(4))
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// nothing moved
	assert.Equal(t, big.NewInt(3), svc.Balance(ctx, "alice.test"))
	assert.Equal(t, big.NewInt(0), svc.Balance(ctx, "relay.test"))
}

func TestTransferRejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	svc := ledger.NewService()

	assert.ErrorIs(t, svc.Transfer(ctx, "alice.test", "relay.test", nil), ledger.ErrInvalidAmount)
	assert.ErrorIs(t, svc.Transfer(ctx, "alice.test", "relay.test", big.NewInt(0)), ledger.ErrInvalidAmount)
}

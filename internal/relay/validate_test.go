package relay

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-relay/internal/relay/evm"
)

func validTransaction() *evm.Transaction {
	from := common.HexToAddress("0x00000000000000000000000000000000000000bB")
	gas := hexutil.Uint64(21000)
	to := "0x00000000000000000000000000000000000000Aa"

	return &evm.Transaction{
		ChainID:  (*hexutil.Big)(big.NewInt(1)),
		From:     &from,
		To:       &to,
		Gas:      &gas,
		GasPrice: (*hexutil.Big)(big.NewInt(5)),
	}
}

func newValidatorService() *service {
	return &service{store: newStore()}
}

func TestValidateTransactionAcceptsComplete(t *testing.T) {
	s := newValidatorService()

	require.NoError(t, s.validateTransaction(validTransaction()))
}

func TestValidateTransactionRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(tx *evm.Transaction)
		reason string
	}{
		{
			name:   "missing gas",
			mutate: func(tx *evm.Transaction) { tx.Gas = nil },
			reason: "gas must be explicitly specified",
		},
		{
			name:   "missing gas price",
			mutate: func(tx *evm.Transaction) { tx.GasPrice = nil },
			reason: "gas must be explicitly specified",
		},
		{
			name:   "missing chain id",
			mutate: func(tx *evm.Transaction) { tx.ChainID = nil },
			reason: "chain id must be explicitly specified",
		},
		{
			name:   "missing sender",
			mutate: func(tx *evm.Transaction) { tx.From = nil },
			reason: "sender must be explicitly specified",
		},
		{
			name:   "deployment",
			mutate: func(tx *evm.Transaction) { tx.To = nil },
			reason: "deployment is not allowed",
		},
		{
			name: "name receiver",
			mutate: func(tx *evm.Transaction) {
				name := "vault.eth"
				tx.To = &name
			},
			reason: "name receivers are not supported",
		},
	}

	s := newValidatorService()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(tx)

			err := s.validateTransaction(tx)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.reason, validationErr.Reason)
		})
	}
}

package relay

import (
	"math/big"

	"github/chapool/go-relay/internal/relay/oracle"
)

var one = big.NewInt(1)

// transactionFee converts a foreign gas-token amount into the local-asset
// fee: tokensForGas * rate * scale, rounded up so the relay never
// under-collects. Arithmetic is arbitrary precision; a 256-bit token amount
// cannot overflow.
func transactionFee(localPerXChain oracle.Ratio, priceScale oracle.Ratio, tokensForGas *big.Int) *big.Int {
	num := new(big.Int).Mul(tokensForGas, localPerXChain.Num)
	num.Mul(num, priceScale.Num)

	den := new(big.Int).Mul(localPerXChain.Den, priceScale.Den)

	fee, rem := new(big.Int).QuoRem(num, den, new(big.Int))
	if rem.Sign() != 0 {
		fee.Add(fee, one)
	}

	return fee
}

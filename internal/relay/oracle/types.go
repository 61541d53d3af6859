package oracle

import (
	"context"
	"math/big"
	"time"
)

// Ratio is a positive rational, used both for normalized exchange rates and
// for the fee markup scale.
type Ratio struct {
	Num *big.Int
	Den *big.Int
}

// NewRatio builds a Ratio from two uint64 components.
func NewRatio(num uint64, den uint64) Ratio {
	return Ratio{
		Num: new(big.Int).SetUint64(num),
		Den: new(big.Int).SetUint64(den),
	}
}

// GasTokenPrice is the normalized price of the foreign gas token: local
// asset units per foreign gas-token unit. UpdatedAt is a staleness marker;
// freshness is not yet enforced.
// TODO: Check price data freshness before using a quote.
type GasTokenPrice struct {
	LocalPerXChain Ratio
	UpdatedAt      time.Time
}

// Price is a single asset price as reported by the oracle.
type Price struct {
	Multiplier string `json:"multiplier"`
	Decimals   uint8  `json:"decimals"`
}

// AssetOptionalPrice is one entry of the oracle response. Price is null when
// the oracle has no quote for the asset.
type AssetOptionalPrice struct {
	AssetID string `json:"asset_id"`
	Price   *Price `json:"price"`
}

// PriceData is the oracle response shape: one entry per requested asset id,
// in request order.
type PriceData struct {
	Prices []AssetOptionalPrice `json:"prices"`
}

// Service fetches price data from the external oracle and normalizes it
// into a GasTokenPrice. Any deviation from the expected response shape
// (wrong entry count, wrong asset ids, missing price) is an error.
type Service interface {
	GetGasTokenPrice(ctx context.Context, localAssetID string, xchainAssetID string) (*GasTokenPrice, error)
}

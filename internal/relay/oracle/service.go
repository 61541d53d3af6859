package oracle

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
)

type service struct {
	baseURL string
	client  *http.Client
	clock   time2.Clock
}

// NewService creates an oracle client against the given base URL. Price data
// is requested from GET {baseURL}/prices?asset_ids=<local>,<xchain>.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(baseURL string, client *http.Client, clock time2.Clock) Service {
	return &service{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		clock:   clock,
	}
}

func (s *service) GetGasTokenPrice(ctx context.Context, localAssetID string, xchainAssetID string) (*GasTokenPrice, error) {
	priceData, err := s.fetchPriceData(ctx, localAssetID, xchainAssetID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch price data")
	}

	return normalize(priceData, localAssetID, xchainAssetID, s.clock.Now())
}

func (s *service) fetchPriceData(ctx context.Context, assetIDs ...string) (*PriceData, error) {
	reqURL := s.baseURL + "/prices?asset_ids=" + url.QueryEscape(strings.Join(assetIDs, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build oracle request")
	}

	res, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "oracle request failed")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("oracle responded with status %d", res.StatusCode)
	}

	var priceData PriceData
	if err := json.NewDecoder(res.Body).Decode(&priceData); err != nil {
		return nil, errors.Wrap(err, "failed to decode oracle response")
	}

	return &priceData, nil
}

// normalize validates the response shape and combines the two quotes into a
// single local-per-xchain ratio, folding in each asset's multiplier and
// decimal count.
func normalize(priceData *PriceData, localAssetID string, xchainAssetID string, updatedAt time.Time) (*GasTokenPrice, error) {
	if len(priceData.Prices) != 2 {
		return nil, errors.Errorf("invalid price data: expected 2 entries, got %d", len(priceData.Prices))
	}

	local := priceData.Prices[0]
	xchain := priceData.Prices[1]

	if local.AssetID != localAssetID || xchain.AssetID != xchainAssetID {
		return nil, errors.Errorf("invalid price data: expected assets [%s, %s], got [%s, %s]",
			localAssetID, xchainAssetID, local.AssetID, xchain.AssetID)
	}

	if local.Price == nil || xchain.Price == nil {
		return nil, errors.New("invalid price data: missing price")
	}

	localMul, err := parseMultiplier(local.Price)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid price data for %s", local.AssetID)
	}

	xchainMul, err := parseMultiplier(xchain.Price)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid price data for %s", xchain.AssetID)
	}

	return &GasTokenPrice{
		LocalPerXChain: Ratio{
			Num: new(big.Int).Mul(xchainMul, big.NewInt(int64(local.Price.Decimals))),
			Den: new(big.Int).Mul(localMul, big.NewInt(int64(xchain.Price.Decimals))),
		},
		UpdatedAt: updatedAt,
	}, nil
}

func parseMultiplier(price *Price) (*big.Int, error) {
	multiplier, ok := new(big.Int).SetString(price.Multiplier, 10)
	if !ok {
		return nil, errors.Errorf("unparseable multiplier %q", price.Multiplier)
	}

	if multiplier.Sign() <= 0 || price.Decimals == 0 {
		return nil, errors.New("multiplier and decimals must be positive")
	}

	return multiplier, nil
}

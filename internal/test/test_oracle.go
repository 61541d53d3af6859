package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github/chapool/go-relay/internal/relay/oracle"
)

// Asset ids and quotes served by the stub oracle. The resulting price ratio
// is (30*10)/(20*10) = 3/2 local units per gas-token unit.
const (
	OracleLocalAssetID  = "wrap.test"
	OracleXChainAssetID = "weth.test"
)

var testQuotes = map[string]oracle.Price{
	OracleLocalAssetID:  {Multiplier: "20", Decimals: 10},
	OracleXChainAssetID: {Multiplier: "30", Decimals: 10},
}

// NewTestOracleServer serves the fixed test quotes for any requested asset
// ids, echoing them back in request order the way the real oracle does.
func NewTestOracleServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assetIDs := strings.Split(r.URL.Query().Get("asset_ids"), ",")

		priceData := oracle.PriceData{}
		for _, assetID := range assetIDs {
			entry := oracle.AssetOptionalPrice{AssetID: assetID}
			if quote, ok := testQuotes[assetID]; ok {
				price := quote
				entry.Price = &price
			}
			priceData.Prices = append(priceData.Prices, entry)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(priceData); err != nil {
			t.Errorf("failed to encode oracle response: %v", err)
		}
	}))
}

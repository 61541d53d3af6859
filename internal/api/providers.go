package api

import (
	"encoding/hex"
	"net/http"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-relay/internal/config"
	"github/chapool/go-relay/internal/metrics"
	"github/chapool/go-relay/internal/relay"
	"github/chapool/go-relay/internal/relay/ledger"
	"github/chapool/go-relay/internal/relay/oracle"
	"github/chapool/go-relay/internal/relay/signer"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

func NewClock() time2.Clock {
	return time2.DefaultClock
}

func NewLedger(_ config.Server) LedgerService {
	return ledger.NewService()
}

func NewOracle(cfg config.Server, clock time2.Clock) OracleService {
	client := &http.Client{Timeout: cfg.Oracle.RequestTimeout}

	return oracle.NewService(cfg.Oracle.URL, client, clock)
}

// NewSigner selects the signer implementation from the configuration: "hd"
// signs with keys derived from the configured master seed, "mock" derives
// deterministic spoof keys and must only be used for simulation.
func NewSigner(cfg config.Server) (SignerService, error) {
	switch cfg.Signer.Kind {
	case "hd":
		seed, err := hex.DecodeString(cfg.Signer.SeedHex)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode signer seed as hex")
		}

		return signer.NewHDSigner(seed)
	case "mock":
		log.Warn().Msg("Initializing mock signer, do not use with real funds")

		return signer.NewMock(cfg.Relay.AccountID), nil
	default:
		return nil, errors.Errorf("unknown signer kind %q", cfg.Signer.Kind)
	}
}

func NewRelayService(
	cfg config.Server,
	oracleService OracleService,
	signerService SignerService,
	ledgerService LedgerService,
	metricsService *metrics.Service,
) (RelayService, error) {
	return relay.NewService(cfg, oracleService, signerService, ledgerService, metricsService)
}

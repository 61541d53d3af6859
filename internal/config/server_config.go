package config

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EchoServer holds the configuration of the HTTP layer.
type EchoServer struct {
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	EnablePrometheusMiddleware     bool
}

// LoggerServer holds the logging configuration.
type LoggerServer struct {
	Level              zerolog.Level
	PrettyPrintConsole bool
}

// Management holds the configuration of the management endpoints
// (readiness, admin-only relay operations).
type Management struct {
	Secret string
}

// Oracle holds the configuration of the external price oracle collaborator.
type Oracle struct {
	URL            string
	LocalAssetID   string
	XChainAssetID  string
	RequestTimeout time.Duration
}

// Signer holds the configuration of the external signer collaborator.
// Kind selects the implementation: "mock" derives deterministic spoof keys
// from the relay account id and the key path (simulation only), "hd" signs
// with keys derived from a BIP32 master seed.
type Signer struct {
	Kind    string
	SeedHex string
}

// Relay holds the configuration of the relay orchestrator itself.
type Relay struct {
	// AccountID is the identity the relay acts as: it receives attached
	// deposits and is the caller identity towards the signer.
	AccountID string
	// PaymasterKeyPath is the fixed sentinel key path used to sign
	// paymaster reimbursement transactions.
	PaymasterKeyPath string
	// PriceScaleNum/PriceScaleDen is the markup applied on top of the
	// market price, e.g. 120/100 for +20%.
	PriceScaleNum uint64
	PriceScaleDen uint64
}

// Server is the central configuration struct, filled from the environment.
type Server struct {
	Echo       EchoServer
	Logger     LoggerServer
	Management Management
	Oracle     Oracle
	Signer     Signer
	Relay      Relay
}

var (
	configOnce sync.Once
)

// DefaultServiceConfigFromEnv returns the server config as parsed from the
// environment. A local .env file is loaded once if present (it never
// overrides variables that are already set).
func DefaultServiceConfigFromEnv() Server {
	configOnce.Do(func() {
		// ignore missing .env, the environment is the source of truth
		_ = gotenv.Load()
	})

	v := viper.New()
	v.SetEnvPrefix("RELAY")
	v.AutomaticEnv()

	v.SetDefault("SERVER_LISTEN_ADDRESS", ":8080")
	v.SetDefault("SERVER_HIDE_INTERNAL_ERROR_DETAILS", true)
	v.SetDefault("SERVER_ENABLE_PROMETHEUS", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY_PRINT_CONSOLE", false)
	v.SetDefault("MGMT_SECRET", "mgmt-secret")
	v.SetDefault("ORACLE_URL", "http://localhost:9200")
	v.SetDefault("ORACLE_LOCAL_ASSET_ID", "wrap.local")
	v.SetDefault("ORACLE_XCHAIN_ASSET_ID", "weth.xchain")
	v.SetDefault("ORACLE_REQUEST_TIMEOUT", 5*time.Second)
	v.SetDefault("SIGNER_KIND", "mock")
	v.SetDefault("SIGNER_SEED_HEX", "")
	v.SetDefault("ACCOUNT_ID", "relay.local")
	v.SetDefault("PAYMASTER_KEY_PATH", "$")
	// +20% on top of market price
	v.SetDefault("PRICE_SCALE_NUM", uint64(120))
	v.SetDefault("PRICE_SCALE_DEN", uint64(100))

	logLevel, err := zerolog.ParseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	return Server{
		Echo: EchoServer{
			ListenAddress:                  v.GetString("SERVER_LISTEN_ADDRESS"),
			HideInternalServerErrorDetails: v.GetBool("SERVER_HIDE_INTERNAL_ERROR_DETAILS"),
			EnablePrometheusMiddleware:     v.GetBool("SERVER_ENABLE_PROMETHEUS"),
		},
		Logger: LoggerServer{
			Level:              logLevel,
			PrettyPrintConsole: v.GetBool("LOG_PRETTY_PRINT_CONSOLE"),
		},
		Management: Management{
			Secret: v.GetString("MGMT_SECRET"),
		},
		Oracle: Oracle{
			URL:            v.GetString("ORACLE_URL"),
			LocalAssetID:   v.GetString("ORACLE_LOCAL_ASSET_ID"),
			XChainAssetID:  v.GetString("ORACLE_XCHAIN_ASSET_ID"),
			RequestTimeout: v.GetDuration("ORACLE_REQUEST_TIMEOUT"),
		},
		Signer: Signer{
			Kind:    v.GetString("SIGNER_KIND"),
			SeedHex: v.GetString("SIGNER_SEED_HEX"),
		},
		Relay: Relay{
			AccountID:        v.GetString("ACCOUNT_ID"),
			PaymasterKeyPath: v.GetString("PAYMASTER_KEY_PATH"),
			PriceScaleNum:    v.GetUint64("PRICE_SCALE_NUM"),
			PriceScaleDen:    v.GetUint64("PRICE_SCALE_DEN"),
		},
	}
}

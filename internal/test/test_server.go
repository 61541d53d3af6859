package test

import (
	"testing"

	"github/chapool/go-relay/internal/api"
	"github/chapool/go-relay/internal/api/router"
	"github/chapool/go-relay/internal/config"
)

// TestMgmtSecret is the management secret all test servers are configured
// with.
const TestMgmtSecret = "test-mgmt-secret"

// DefaultTestConfig returns a server config suitable for tests: mock signer,
// fixed management secret and the given oracle endpoint.
func DefaultTestConfig(oracleURL string) config.Server {
	cfg := config.DefaultServiceConfigFromEnv()

	cfg.Echo.HideInternalServerErrorDetails = false
	cfg.Management.Secret = TestMgmtSecret
	cfg.Oracle.URL = oracleURL
	cfg.Oracle.LocalAssetID = OracleLocalAssetID
	cfg.Oracle.XChainAssetID = OracleXChainAssetID
	cfg.Signer.Kind = "mock"
	cfg.Relay.AccountID = "relay.test"

	return cfg
}

// WithTestServer runs the closure against a fully wired test server backed
// by a stub oracle.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	oracleServer := NewTestOracleServer(t)
	defer oracleServer.Close()

	WithTestServerConfigurable(t, DefaultTestConfig(oracleServer.URL), closure)
}

// WithTestServerConfigurable runs the closure against a test server built
// from the given config.
func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	s, err := api.InitNewServer(cfg)
	if err != nil {
		t.Fatalf("failed to init server: %v", err)
	}

	router.Init(s)

	closure(s)
}

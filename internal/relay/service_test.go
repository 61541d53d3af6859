package relay_test

import (
	"context"
	"encoding/hex"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-relay/internal/config"
	"github/chapool/go-relay/internal/metrics"
	"github/chapool/go-relay/internal/relay"
	"github/chapool/go-relay/internal/relay/evm"
	"github/chapool/go-relay/internal/relay/ledger"
	"github/chapool/go-relay/internal/relay/oracle"
	"github/chapool/go-relay/internal/relay/signer"
)

const (
	testRelayAccount = "relay.test"
	testCaller       = "alice.test"
)

type oracleFunc func(ctx context.Context, localAssetID string, xchainAssetID string) (*oracle.GasTokenPrice, error)

func (f oracleFunc) GetGasTokenPrice(ctx context.Context, localAssetID string, xchainAssetID string) (*oracle.GasTokenPrice, error) {
	return f(ctx, localAssetID, xchainAssetID)
}

type signerFunc func(ctx context.Context, digest [32]byte, keyPath string) (*signer.MpcSignature, error)

func (f signerFunc) Sign(ctx context.Context, digest [32]byte, keyPath string) (*signer.MpcSignature, error) {
	return f(ctx, digest, keyPath)
}

// fixedPriceOracle quotes 3 local units per 2 foreign gas-token units.
func fixedPriceOracle() oracle.Service {
	return oracleFunc(func(_ context.Context, _ string, _ string) (*oracle.GasTokenPrice, error) {
		return &oracle.GasTokenPrice{LocalPerXChain: oracle.NewRatio(3, 2)}, nil
	})
}

func testRelayConfig() config.Server {
	return config.Server{
		Oracle: config.Oracle{
			LocalAssetID:  "wrap.test",
			XChainAssetID: "weth.test",
		},
		Relay: config.Relay{
			AccountID:        testRelayAccount,
			PaymasterKeyPath: "$",
			PriceScaleNum:    120,
			PriceScaleDen:    100,
		},
	}
}

func newTestRelay(t *testing.T, oracleService oracle.Service, signerService signer.Service) (relay.Service, ledger.Service) {
	t.Helper()

	ledgerService := ledger.NewService()

	svc, err := relay.NewService(testRelayConfig(), oracleService, signerService, ledgerService, metrics.New())
	require.NoError(t, err)

	return svc, ledgerService
}

// testTransaction has gas 2 and gas price 5, so with the 3/2 test quote and
// the 120/100 markup the fee is ceil(10 * 3 * 120 / 200) = 18.
func testTransaction(from common.Address) *evm.Transaction {
	nonce := hexutil.Uint64(7)
	gas := hexutil.Uint64(2)
	to := "0x00000000000000000000000000000000000000Aa"

	return &evm.Transaction{
		ChainID:  (*hexutil.Big)(big.NewInt(1)),
		Nonce:    &nonce,
		From:     &from,
		To:       &to,
		Gas:      &gas,
		GasPrice: (*hexutil.Big)(big.NewInt(5)),
		Value:    (*hexutil.Big)(big.NewInt(0)),
	}
}

func testSender() common.Address {
	return common.HexToAddress("0x00000000000000000000000000000000000000bB")
}

func creditCaller(t *testing.T, ledgerService ledger.Service, amount int64) {
	t.Helper()

	_, err := ledgerService.Credit(context.Background(), testCaller, big.NewInt(amount))
	require.NoError(t, err)
}

func TestInitiateTransactionPersistsBatch(t *testing.T) {
	ctx := context.Background()
	svc, ledgerService := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))
	creditCaller(t, ledgerService, 18)

	initiation, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
		Deposit:         big.NewInt(18),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(0), initiation.ID)
	assert.Equal(t, 2, initiation.PendingSignatureCount)

	// exact deposit, nothing comes back
	assert.Equal(t, big.NewInt(0), ledgerService.Balance(ctx, testCaller))
	assert.Equal(t, big.NewInt(18), ledgerService.Balance(ctx, testRelayAccount))

	batch, err := svc.GetBatch(ctx, initiation.ID)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	assert.Equal(t, "$", batch[0].KeyPath)
	assert.Equal(t, "pending", batch[0].State)
	assert.Empty(t, batch[0].SignedTransaction)

	assert.Equal(t, testCaller, batch[1].KeyPath)
	assert.Equal(t, "pending", batch[1].State)
}

func TestInitiateTransactionRefundsExcessDeposit(t *testing.T) {
	ctx := context.Background()
	svc, ledgerService := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))
	creditCaller(t, ledgerService, 23)

	_, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
		Deposit:         big.NewInt(23),
	})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(5), ledgerService.Balance(ctx, testCaller))
	assert.Equal(t, big.NewInt(18), ledgerService.Balance(ctx, testRelayAccount))
}

func TestInitiateTransactionInsufficientDeposit(t *testing.T) {
	ctx := context.Background()
	svc, ledgerService := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))
	creditCaller(t, ledgerService, 17)

	_, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
		Deposit:         big.NewInt(17),
	})

	var insufficientErr *relay.InsufficientFundsError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Equal(t, big.NewInt(17), insufficientErr.Deposit)
	assert.Equal(t, big.NewInt(18), insufficientErr.Fee)

	// full refund, no batch persisted
	assert.Equal(t, big.NewInt(17), ledgerService.Balance(ctx, testCaller))
	assert.Equal(t, big.NewInt(0), ledgerService.Balance(ctx, testRelayAccount))

	_, err = svc.GetBatch(ctx, 0)
	var notFoundErr *relay.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestInitiateTransactionOracleFailureRefunds(t *testing.T) {
	ctx := context.Background()
	failingOracle := oracleFunc(func(_ context.Context, _ string, _ string) (*oracle.GasTokenPrice, error) {
		return nil, errors.New("oracle down")
	})

	svc, ledgerService := newTestRelay(t, failingOracle, signer.NewMock(testRelayAccount))
	creditCaller(t, ledgerService, 100)

	_, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
		Deposit:         big.NewInt(100),
	})

	var oracleErr *relay.OracleError
	require.ErrorAs(t, err, &oracleErr)

	assert.Equal(t, big.NewInt(100), ledgerService.Balance(ctx, testCaller))
	assert.Equal(t, big.NewInt(0), ledgerService.Balance(ctx, testRelayAccount))
}

func TestInitiateTransactionRequiresDeposit(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))

	var validationErr *relay.ValidationError

	_, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
	})
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
		Deposit:         big.NewInt(0),
	})
	assert.ErrorAs(t, err, &validationErr)
}

func TestInitiateTransactionExactlyOneRepresentation(t *testing.T) {
	ctx := context.Background()
	svc, ledgerService := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))
	creditCaller(t, ledgerService, 100)

	var validationErr *relay.ValidationError

	_, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		Deposit: big.NewInt(100),
	})
	assert.ErrorAs(t, err, &validationErr)

	rlpHex := "deadbeef"
	_, err = svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
		TransactionRLP:  &rlpHex,
		Deposit:         big.NewInt(100),
	})
	assert.ErrorAs(t, err, &validationErr)
}

func TestSignNextSequenceAndExhaustion(t *testing.T) {
	ctx := context.Background()
	svc, ledgerService := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))
	creditCaller(t, ledgerService, 18)

	initiation, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
		Deposit:         big.NewInt(18),
	})
	require.NoError(t, err)

	// paymaster reimbursement comes first
	first, err := svc.SignNext(ctx, initiation.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	batch, err := svc.GetBatch(ctx, initiation.ID)
	require.NoError(t, err)
	assert.Equal(t, "signed", batch[0].State)
	assert.Equal(t, first, batch[0].SignedTransaction)
	assert.Equal(t, "pending", batch[1].State)

	second, err := svc.SignNext(ctx, initiation.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, second)
	assert.NotEqual(t, first, second)

	_, err = svc.SignNext(ctx, initiation.ID)
	assert.ErrorIs(t, err, relay.ErrNoPendingRequests)
}

func TestSignNextUnknownBatch(t *testing.T) {
	svc, _ := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))

	_, err := svc.SignNext(context.Background(), 42)

	var notFoundErr *relay.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

func TestSignNextConcurrentCallsSelectDistinctEntries(t *testing.T) {
	ctx := context.Background()

	mock := signer.NewMock(testRelayAccount)
	entered := make(chan string, 2)
	release := make(chan struct{})
	gated := signerFunc(func(ctx context.Context, digest [32]byte, keyPath string) (*signer.MpcSignature, error) {
		entered <- keyPath
		<-release

		return mock.Sign(ctx, digest, keyPath)
	})

	svc, ledgerService := newTestRelay(t, fixedPriceOracle(), gated)
	creditCaller(t, ledgerService, 18)

	initiation, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
		Deposit:         big.NewInt(18),
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SignNext(ctx, initiation.ID)
			results <- err
		}()
	}

	// both calls must be inside the signer before either one finalizes,
	// proving the dispatch marked two distinct entries
	keyPaths := map[string]struct{}{}
	keyPaths[<-entered] = struct{}{}
	keyPaths[<-entered] = struct{}{}
	assert.Equal(t, map[string]struct{}{"$": {}, testCaller: {}}, keyPaths)

	close(release)
	wg.Wait()
	close(results)

	for err := range results {
		assert.NoError(t, err)
	}
}

func TestSignNextSignerFailureStaysInFlight(t *testing.T) {
	ctx := context.Background()

	mock := signer.NewMock(testRelayAccount)
	shouldFail := true
	flaky := signerFunc(func(ctx context.Context, digest [32]byte, keyPath string) (*signer.MpcSignature, error) {
		if shouldFail {
			return nil, errors.New("signer timed out")
		}

		return mock.Sign(ctx, digest, keyPath)
	})

	svc, ledgerService := newTestRelay(t, fixedPriceOracle(), flaky)
	creditCaller(t, ledgerService, 18)

	initiation, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
		Deposit:         big.NewInt(18),
	})
	require.NoError(t, err)

	_, err = svc.SignNext(ctx, initiation.ID)
	var signerErr *relay.SignerError
	require.ErrorAs(t, err, &signerErr)

	batch, err := svc.GetBatch(ctx, initiation.ID)
	require.NoError(t, err)
	assert.Equal(t, "in_flight", batch[0].State)
	assert.Equal(t, "pending", batch[1].State)

	// the stuck entry is skipped, the next pending one is dispatched
	shouldFail = false
	_, err = svc.SignNext(ctx, initiation.ID)
	require.NoError(t, err)

	batch, err = svc.GetBatch(ctx, initiation.ID)
	require.NoError(t, err)
	assert.Equal(t, "in_flight", batch[0].State)
	assert.Equal(t, "signed", batch[1].State)

	// only an explicit recovery makes it eligible again
	require.NoError(t, svc.RecoverRequest(ctx, initiation.ID, 0))

	_, err = svc.SignNext(ctx, initiation.ID)
	require.NoError(t, err)

	batch, err = svc.GetBatch(ctx, initiation.ID)
	require.NoError(t, err)
	assert.Equal(t, "signed", batch[0].State)
}

func TestRecoverRequestRejectsNonInFlight(t *testing.T) {
	ctx := context.Background()
	svc, ledgerService := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))
	creditCaller(t, ledgerService, 18)

	initiation, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(testSender()),
		Deposit:         big.NewInt(18),
	})
	require.NoError(t, err)

	var notFoundErr *relay.NotFoundError

	err = svc.RecoverRequest(ctx, initiation.ID, 0)
	assert.ErrorAs(t, err, &notFoundErr)

	err = svc.RecoverRequest(ctx, initiation.ID, 5)
	assert.ErrorAs(t, err, &notFoundErr)

	_, err = svc.SignNext(ctx, initiation.ID)
	require.NoError(t, err)

	err = svc.RecoverRequest(ctx, initiation.ID, 0)
	assert.ErrorAs(t, err, &notFoundErr, "signed entries must not be recoverable")
}

func TestSignNextProducesBroadcastableTransaction(t *testing.T) {
	ctx := context.Background()
	svc, ledgerService := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))
	creditCaller(t, ledgerService, 18)

	sender := testSender()
	initiation, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(sender),
		Deposit:         big.NewInt(18),
	})
	require.NoError(t, err)

	signedHex, err := svc.SignNext(ctx, initiation.ID)
	require.NoError(t, err)

	raw, err := hex.DecodeString(signedHex)
	require.NoError(t, err)

	var signed types.Transaction
	require.NoError(t, signed.UnmarshalBinary(raw))

	// the paymaster reimbursement pays the gas-token budget to the sender
	assert.Equal(t, big.NewInt(1), signed.ChainId())
	require.NotNil(t, signed.To())
	assert.Equal(t, sender, *signed.To())
	assert.Equal(t, big.NewInt(10), signed.Value())

	// the signature must recover to the mock's paymaster key
	key, err := signer.SpoofKey([]byte(testRelayAccount), []byte("$"))
	require.NoError(t, err)

	recovered, err := types.Sender(types.NewEIP155Signer(big.NewInt(1)), &signed)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), recovered)
}

func TestWhitelistGating(t *testing.T) {
	ctx := context.Background()
	svc, ledgerService := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))
	creditCaller(t, ledgerService, 200)

	sender := testSender()
	receiver := common.HexToAddress("0x00000000000000000000000000000000000000Aa")

	svc.SetFlags(ctx, relay.Flags{IsSenderWhitelistEnabled: true, IsReceiverWhitelistEnabled: true})

	var validationErr *relay.ValidationError
	_, err := svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(sender),
		Deposit:         big.NewInt(18),
	})
	require.ErrorAs(t, err, &validationErr)

	// rejected before the deposit moves
	assert.Equal(t, big.NewInt(200), ledgerService.Balance(ctx, testCaller))

	require.NoError(t, svc.AddToWhitelist(ctx, relay.WhitelistReceiver, []common.Address{receiver}))

	_, err = svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(sender),
		Deposit:         big.NewInt(18),
	})
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, err.Error(), "sender is not whitelisted")

	require.NoError(t, svc.AddToWhitelist(ctx, relay.WhitelistSender, []common.Address{sender}))

	_, err = svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(sender),
		Deposit:         big.NewInt(18),
	})
	require.NoError(t, err)

	// disabling the flags lifts the gate again
	require.NoError(t, svc.RemoveFromWhitelist(ctx, relay.WhitelistSender, []common.Address{sender}))
	svc.SetFlags(ctx, relay.Flags{})

	_, err = svc.InitiateTransaction(ctx, testCaller, relay.InitiateTransactionParams{
		TransactionJSON: testTransaction(sender),
		Deposit:         big.NewInt(18),
	})
	require.NoError(t, err)
}

func TestWhitelistMembership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestRelay(t, fixedPriceOracle(), signer.NewMock(testRelayAccount))

	a := common.HexToAddress("0x0000000000000000000000000000000000000001")
	b := common.HexToAddress("0x0000000000000000000000000000000000000002")

	require.NoError(t, svc.AddToWhitelist(ctx, relay.WhitelistSender, []common.Address{a, b}))

	members, err := svc.GetWhitelist(ctx, relay.WhitelistSender)
	require.NoError(t, err)
	assert.ElementsMatch(t, []common.Address{a, b}, members)

	// the two lists are independent
	members, err = svc.GetWhitelist(ctx, relay.WhitelistReceiver)
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, svc.ClearWhitelist(ctx, relay.WhitelistSender))

	members, err = svc.GetWhitelist(ctx, relay.WhitelistSender)
	require.NoError(t, err)
	assert.Empty(t, members)
}
